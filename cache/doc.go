// Package cache provides the read-through cache contract used by the
// reference data stores, a namespaced key builder and backend selection.
//
// # Overview
//
//   - CacheService: GetOrFetch, Delete and DeleteByPrefix over an opaque backend
//   - KeySerializer: builds stable keys from a namespace and ordered segments
//   - NewCacheService: builds the sturdyc, go-cache ("memory") or redis backend
//
// # Keys
//
// The default serializer joins segments with KeySeparator:
//
//	keys := cache.NewDefaultKeySerializer()
//	keys.SerializeKey("basedata", "MachineType", "code", "CNC") // basedata::MachineType::code::CNC
//	cache.Prefix(keys, "basedata", "MachineType", "id")          // basedata::MachineType::id::
//
// Prefixes end with the separator so evicting one type never touches a
// type whose name merely starts with the same letters.
//
// # Read-through
//
//	row, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (MachineType, error) {
//		return repo.GetByID(ctx, id)
//	})
//
// Errors returned by the fetch function are propagated and never cached.
//
// # Coherence
//
// The in-process backends (sturdyc, memory) only see evictions issued by
// their own process. The redis backend shares entries and evictions between
// processes pointing at the same server, without any notification channel.
package cache
