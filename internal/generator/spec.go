package generator

// NodeSpec is the user-facing description of one generator instance and
// its children, as read from the root configuration.
type NodeSpec struct {
	Generator string                 `yaml:"generator"`
	Name      string                 `yaml:"name,omitempty"`
	Config    map[string]interface{} `yaml:"config,omitempty"`
	// Refs pins dependency slots to a producer, e.g. {model: "models.user"}
	Refs     map[string]string     `yaml:"refs,omitempty"`
	Children map[string][]NodeSpec `yaml:"children,omitempty"`
}

// ChildrenOf returns the explicit children for slot and whether the spec
// configured the slot at all. An explicitly empty list disables defaults.
func (s NodeSpec) ChildrenOf(slot string) ([]NodeSpec, bool) {
	children, ok := s.Children[slot]
	return children, ok
}
