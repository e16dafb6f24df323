// Package basedata is a generic store for reference data: small tables of
// code keyed rows such as statuses, categories and types.
//
// # Types
//
// A reference data type embeds Base and names its table on bun.BaseModel.
// Describe turns it into a Descriptor and NewRegistry collects descriptors
// into the static table callers resolve names against:
//
//	registry := basedata.MustNewRegistry(
//		basedata.Describe[MachineType]("MachineType"),
//		basedata.Describe[MachineStatus]("MachineStatus"),
//	)
//
// Resolve matches names exactly. Anything else is an InvalidEntity error,
// so a name coming from a request can never reach an unregistered type.
//
// # Stores
//
// A Factory returns a new store per call. Stores carry no mutable state of
// their own, so one factory serves concurrent callers working on different
// types. Factory.Create works by name and returns the untyped Store. For
// returns the typed Repository[T] for code that knows T at compile time.
//
//	store, err := factory.Create("MachineType")
//	row, err := store.Create(ctx, basedata.Payload{Code: "CNC", Name: "CNC mill"})
//
//	types, err := basedata.For[MachineType](factory)
//	cnc, found, err := types.FindByCode(ctx, "CNC")
//
// Ids are assigned by the database. Code is required on create and never
// changes afterwards. Update only writes name and description.
//
// # Caching
//
// When the factory has a cache, reads go through three key namespaces per
// type:
//
//	basedata::<Type>::all
//	basedata::<Type>::id::<id>
//	basedata::<Type>::code::<code>
//
// Every successful create, update or delete evicts all of them for that
// type. Lookups that find nothing are not cached.
//
// # Errors
//
// Errors are *goerrors.Error values with a text code: NOT_FOUND,
// DUPLICATE_CODE, DEPENDENCY_EXISTS, INVALID_ENTITY and VALIDATION_FAILED.
// Driver errors never escape; constraint violations are mapped to the
// matching code and anything else is wrapped as STORAGE_FAILURE.
package basedata
