package detective

import "fmt"

// Registry holds detectives in registration order. Declarations are checked
// when a detective is registered, so configuration mistakes surface before
// any run.
//
// Thread Safety: not safe for concurrent use. Register everything in one
// goroutine, then build an Engine.
type Registry struct {
	detectives  []Detective
	descriptors []Descriptor
	byID        map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]int)}
}

// Register validates d and appends it with the next ordinal.
//
// Rejected declarations: nil detective, empty ID, duplicate ID, no outputs,
// names outside the vocabulary, a name listed twice, or a name that is both
// an input and an output. SeedSource is reserved: it marks seed records.
func (r *Registry) Register(d Detective) error {
	if d == nil {
		return &RegistrationError{Err: ErrInvalidDetective, Detail: "nil detective"}
	}
	id := d.ID()
	if id == "" {
		return &RegistrationError{Err: ErrInvalidDetective, Detail: "empty id"}
	}
	if id == SeedSource {
		return &RegistrationError{Err: ErrInvalidDetective, Detail: fmt.Sprintf("id %q is reserved", SeedSource)}
	}
	if _, exists := r.byID[id]; exists {
		return &RegistrationError{Detective: id, Err: ErrDuplicateDetective}
	}

	inputs := append([]Name(nil), d.Inputs()...)
	outputs := append([]Name(nil), d.Outputs()...)
	if len(outputs) == 0 {
		return &RegistrationError{Detective: id, Err: ErrInvalidDetective, Detail: "no outputs declared"}
	}
	if err := checkNames(id, "input", inputs); err != nil {
		return err
	}
	if err := checkNames(id, "output", outputs); err != nil {
		return err
	}
	in := make(map[Name]bool, len(inputs))
	for _, n := range inputs {
		in[n] = true
	}
	for _, n := range outputs {
		if in[n] {
			return &RegistrationError{Detective: id, Err: ErrOverlappingIO, Detail: string(n)}
		}
	}

	r.byID[id] = len(r.detectives)
	r.detectives = append(r.detectives, d)
	r.descriptors = append(r.descriptors, Descriptor{
		ID:      id,
		Ordinal: len(r.descriptors),
		Inputs:  inputs,
		Outputs: outputs,
	})
	return nil
}

// MustRegister is like Register but panics on error. Use for static wiring
// where a failure is a programming mistake.
func (r *Registry) MustRegister(ds ...Detective) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

func checkNames(id, kind string, names []Name) error {
	seen := make(map[Name]bool, len(names))
	for _, n := range names {
		if !n.Valid() {
			return &RegistrationError{Detective: id, Err: ErrUnknownAttribute, Detail: fmt.Sprintf("%s %q", kind, n)}
		}
		if seen[n] {
			return &RegistrationError{Detective: id, Err: ErrInvalidDetective, Detail: fmt.Sprintf("%s %q listed twice", kind, n)}
		}
		seen[n] = true
	}
	return nil
}

// Len returns the number of registered detectives.
func (r *Registry) Len() int { return len(r.detectives) }

// Descriptors returns the declarations in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Lookup returns the detective registered under id.
func (r *Registry) Lookup(id string) (Detective, Descriptor, bool) {
	i, ok := r.byID[id]
	if !ok {
		return nil, Descriptor{}, false
	}
	return r.detectives[i], r.descriptors[i], true
}
