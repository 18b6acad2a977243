package stockroom

import (
	"reflect"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"

	"github.com/TheBitDrifter/stockroom/archive"
)

// MaxComponentTypes bounds how many component types one registry accepts.
const MaxComponentTypes = 256

// SerializeFunc writes a container's payload: its entity list followed by the component data.
type SerializeFunc func(w *archive.Writer, c ContainerBase) error

// DeserializeFunc reads a payload written by the matching SerializeFunc into a new container.
type DeserializeFunc func(r *archive.Reader) (ContainerBase, error)

// RegistryEntry is everything the registry knows about one component type.
type RegistryEntry struct {
	ID          TypeID
	Name        string
	Serialize   SerializeFunc
	Deserialize DeserializeFunc
	// Schema is the JSON schema of the component, used to detect drift between a save and
	// the running build.
	Schema []byte

	goType reflect.Type
}

// Registry maps TypeIDs to their (de)serializers. Applications populate it once at startup,
// usually from init functions calling MustRegister.
type Registry struct {
	entries Cache[RegistryEntry]
	byID    map[TypeID]int
}

// DefaultRegistry is the process-wide registry stores use unless configured otherwise.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		entries: FactoryNewCache[RegistryEntry](MaxComponentTypes),
		byID:    make(map[TypeID]int),
	}
}

// Register adds component type T with the given codec. Registering the same type twice is a
// no-op; two distinct types sharing a name (or a TypeID) is an error.
func Register[T Component](r *Registry, codec Codec[T]) error {
	var zero T
	name := zero.Name()
	if name == "" {
		return eris.Errorf("component %T has an empty name", zero)
	}
	id := TypeIDFor(name)
	goType := reflect.TypeFor[T]()

	if idx, ok := r.byID[id]; ok {
		existing := r.entries.GetItem(idx)
		if existing.goType == goType && existing.Name == name {
			return nil
		}
		return eris.Errorf("component %q (%s) collides with registered %q (%s)", name, goType, existing.Name, existing.goType)
	}
	if codec == nil {
		return eris.Errorf("component %q registered without a codec", name)
	}
	if v, ok := codec.(validator); ok && !isTagType[T]() {
		if err := v.validate(); err != nil {
			return eris.Wrapf(err, "invalid codec for component %q", name)
		}
	}

	schema, err := jsonschema.Reflect(zero).MarshalJSON()
	if err != nil {
		return eris.Wrapf(err, "component %q must be json serializable", name)
	}

	entry := RegistryEntry{
		ID:          id,
		Name:        name,
		Serialize:   serializeContainer(codec),
		Deserialize: deserializeContainer(codec),
		Schema:      schema,
		goType:      goType,
	}
	idx, err := r.entries.Register(name, entry)
	if err != nil {
		return eris.Wrapf(err, "failed to register component %q", name)
	}
	r.byID[id] = idx
	return nil
}

// MustRegister registers T in DefaultRegistry and panics on failure.
func MustRegister[T Component](codec Codec[T]) {
	if err := Register(DefaultRegistry, codec); err != nil {
		panic(err)
	}
}

func serializeContainer[T Component](codec Codec[T]) SerializeFunc {
	return func(w *archive.Writer, cb ContainerBase) error {
		c, ok := cb.(*Container[T])
		if !ok {
			return ComponentTypeMismatchError{
				ID:       cb.TypeID(),
				Name:     cb.Name(),
				Expected: reflect.TypeFor[T]().String(),
				Got:      reflect.TypeOf(cb).String(),
			}
		}
		if err := c.writeEntities(w); err != nil {
			return err
		}
		if c.tag {
			return nil
		}
		return codec.Encode(w, c.components)
	}
}

func deserializeContainer[T Component](codec Codec[T]) DeserializeFunc {
	return func(r *archive.Reader) (ContainerBase, error) {
		c := newContainer[T]()
		if err := c.readEntities(r); err != nil {
			return nil, err
		}
		if c.tag {
			return c, nil
		}
		components, err := codec.Decode(r, uint64(len(c.entities)))
		if err != nil {
			return nil, err
		}
		if len(components) != len(c.entities) {
			return nil, archive.Corruptf(r.Offset(), "component %q: decoded %d components for %d entities",
				c.name, len(components), len(c.entities))
		}
		c.components = components
		return c, nil
	}
}

// Lookup returns the entry registered under id.
func (r *Registry) Lookup(id TypeID) (*RegistryEntry, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.entries.GetItem(idx), true
}

// LookupName returns the entry registered under a component name.
func (r *Registry) LookupName(name string) (*RegistryEntry, bool) {
	idx, ok := r.entries.GetIndex(name)
	if !ok {
		return nil, false
	}
	return r.entries.GetItem(idx), true
}

// Types returns the registered TypeIDs in ascending order.
func (r *Registry) Types() []TypeID {
	ids := make([]TypeID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Names returns the registered component names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, r.entries.Len())
	for i := range names {
		names[i] = r.entries.GetItem(i).Name
	}
	return names
}

// Schemas returns the JSON schema of every registered component keyed by name.
func (r *Registry) Schemas() map[string][]byte {
	out := make(map[string][]byte, r.entries.Len())
	for i := 0; i < r.entries.Len(); i++ {
		entry := r.entries.GetItem(i)
		out[entry.Name] = entry.Schema
	}
	return out
}

// ValidateSchemas compares stored schemas against the registered components. Names the
// registry doesn't know are skipped; loading data for them fails later with
// UnknownComponentTypeError.
func (r *Registry) ValidateSchemas(stored map[string][]byte) error {
	names := make([]string, 0, len(stored))
	for name := range stored {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		entry, ok := r.LookupName(name)
		if !ok {
			continue
		}
		patch, err := jsondiff.CompareJSON(entry.Schema, stored[name])
		if err != nil {
			return eris.Wrapf(err, "failed to compare schema of component %q", name)
		}
		if len(patch) != 0 {
			return eris.Wrapf(ErrComponentSchemaMismatch, "component %q: %s", name, patch.String())
		}
	}
	return nil
}

func (r *Registry) serialize(w *archive.Writer, c ContainerBase) error {
	entry, ok := r.Lookup(c.TypeID())
	if !ok {
		return UnknownComponentTypeError{ID: c.TypeID()}
	}
	return entry.Serialize(w, c)
}

func (r *Registry) deserialize(id TypeID, rd *archive.Reader) (ContainerBase, error) {
	entry, ok := r.Lookup(id)
	if !ok {
		return nil, UnknownComponentTypeError{ID: id}
	}
	return entry.Deserialize(rd)
}
