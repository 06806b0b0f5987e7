package cas

import (
	"fmt"
	"io"
	"reflect"

	"github.com/shamaton/msgpack/v2"

	"github.com/marrow-lang/marrow/vm"
)

// TypedEntry wraps a Hashable with a type tag for deserialization
type TypedEntry struct {
	TypeTag string
	Data    []byte
}

func (t *TypedEntry) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, t)
}

func (t *TypedEntry) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, t)
}

// ProgramEntry is a compiled program as kept in the cache.
type ProgramEntry struct {
	Name   string
	Source Hash
	Image  *vm.Image
}

func NewProgramEntry(name string, source Hash, prog *vm.Program) *ProgramEntry {
	return &ProgramEntry{
		Name:   name,
		Source: source,
		Image:  prog.Image(),
	}
}

func (p *ProgramEntry) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, p)
}

func (p *ProgramEntry) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, p)
}

func (p *ProgramEntry) Program() (*vm.Program, error) {
	if p.Image == nil {
		return nil, fmt.Errorf("cache entry %s has no image", p.Name)
	}
	return p.Image.Program()
}

// typeRegistry maps type tags to reflect.Type for deserialization
var typeRegistry = make(map[string]reflect.Type)

func registerType(tag string, example Hashable) {
	typeRegistry[tag] = reflect.TypeOf(example)
}

func init() {
	registerType("Program", &ProgramEntry{})
}

// getTypeTag returns the registered tag for item's type.
func getTypeTag(item Hashable) (string, error) {
	t := reflect.TypeOf(item)
	for tag, regType := range typeRegistry {
		if t == regType {
			return tag, nil
		}
	}
	return "", fmt.Errorf("type %s is not registered", t)
}

// createInstance creates a new instance of the registered type
func createInstance(tag string) (Hashable, error) {
	regType, ok := typeRegistry[tag]
	if !ok {
		return nil, fmt.Errorf("unknown type tag: %s", tag)
	}
	if regType.Kind() == reflect.Ptr {
		instance := reflect.New(regType.Elem()).Interface()
		if h, ok := instance.(Hashable); ok {
			return h, nil
		}
	}
	return nil, fmt.Errorf("type %s does not implement Hashable", tag)
}
