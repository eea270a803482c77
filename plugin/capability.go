package plugin

// Capability is one named export inside a capability group.
type Capability struct {
	Name string
	// Impl is whatever the plugin declared for the capability. dtsgen
	// carries it through loading but never inspects it.
	Impl any
}

// Group is an ordered capability group. Order is the plugin's declared
// order. A nil Group means the plugin does not export the group at all.
type Group []Capability

// NewGroup builds a group from names alone.
func NewGroup(names ...string) Group {
	g := make(Group, len(names))
	for i, name := range names {
		g[i] = Capability{Name: name}
	}
	return g
}

// Names returns the capability names in declared order.
func (g Group) Names() []string {
	if len(g) == 0 {
		return nil
	}
	names := make([]string, len(g))
	for i, c := range g {
		names[i] = c.Name
	}
	return names
}

// CapabilitySet is the exported shape of a plugin: anything with an
// optional parsers group (and, for the plugin's own use, printers).
type CapabilitySet struct {
	Parsers  Group
	Printers Group
}
