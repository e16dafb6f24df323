package basedata

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"

	goerrors "github.com/goliatone/go-errors"
)

// Descriptor binds a registry name to a reference data type. Descriptors
// are only built by Describe.
type Descriptor interface {
	Name() string
	Table() string
	goType() reflect.Type
	bind(env storeEnv) Store
}

type descriptor[T any, PT Model[T]] struct {
	name  string
	table string
}

// Describe registers T under name. The table comes from the table option
// on T's bun.BaseModel tag.
func Describe[T any, PT Model[T]](name string) Descriptor {
	return &descriptor[T, PT]{name: name, table: tableOf(reflect.TypeFor[T]())}
}

func (d *descriptor[T, PT]) Name() string { return d.name }

func (d *descriptor[T, PT]) Table() string { return d.table }

func (d *descriptor[T, PT]) goType() reflect.Type { return reflect.TypeFor[T]() }

func (d *descriptor[T, PT]) repository(env storeEnv) Repository[T] {
	var repo Repository[T] = &sqlRepository[T, PT]{db: env.db, typeName: d.name}
	if env.cache != nil {
		repo = newCachedRepository(repo, d.name, env.cache, env.keys, env.gens)
	}
	return repo
}

func (d *descriptor[T, PT]) bind(env storeEnv) Store {
	return &storeView[T, PT]{typeName: d.name, repo: d.repository(env)}
}

func tableOf(t reflect.Type) string {
	field, ok := t.FieldByName("BaseModel")
	if !ok {
		return ""
	}
	for _, opt := range strings.Split(field.Tag.Get("bun"), ",") {
		if table, found := strings.CutPrefix(opt, "table:"); found {
			return table
		}
	}
	return ""
}

// Registry is the static table of known reference data types. It is built
// once at startup and only read afterwards.
type Registry struct {
	byName map[string]Descriptor
	byType map[reflect.Type]Descriptor
	names  []string
}

// NewRegistry indexes the descriptors by name and Go type. Names must be
// non-empty, free of whitespace and of the cache key separator, and unique.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Descriptor, len(descriptors)),
		byType: make(map[reflect.Type]Descriptor, len(descriptors)),
	}

	for i, d := range descriptors {
		if d == nil {
			return nil, registryError(fmt.Sprintf("descriptor %d is nil", i))
		}
		name := d.Name()
		if name == "" || strings.ContainsFunc(name, unicode.IsSpace) || strings.Contains(name, ":") {
			return nil, registryError(fmt.Sprintf("invalid type name %q", name))
		}
		if _, dup := r.byName[name]; dup {
			return nil, registryError(fmt.Sprintf("type %q registered twice", name))
		}
		if prev, dup := r.byType[d.goType()]; dup {
			return nil, registryError(fmt.Sprintf("type %q already registered as %q", name, prev.Name()))
		}
		r.byName[name] = d
		r.byType[d.goType()] = d
		r.names = append(r.names, name)
	}

	slices.Sort(r.names)
	return r, nil
}

// MustNewRegistry is NewRegistry for package level tables.
func MustNewRegistry(descriptors ...Descriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

func registryError(msg string) error {
	return goerrors.New(msg, goerrors.CategoryBadInput).WithTextCode("INVALID_REGISTRY")
}

// Resolve returns the descriptor registered under name. Matching is exact.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	if d, ok := r.byName[name]; ok {
		return d, nil
	}
	return nil, errInvalidEntity(name)
}

// ListKnownTypes returns the registered names in sorted order.
func (r *Registry) ListKnownTypes() []string {
	return slices.Clone(r.names)
}

func (r *Registry) Len() int { return len(r.names) }

// Lookup returns the descriptor registered for T.
func Lookup[T any](r *Registry) (Descriptor, error) {
	t := reflect.TypeFor[T]()
	if d, ok := r.byType[t]; ok {
		return d, nil
	}
	return nil, errInvalidEntity(t.String())
}
