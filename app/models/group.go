package models

// Validate checks the title and slug rules.
func (g *Group) Validate() error {
	return validateStruct(g)
}

func (g *Group) String() string {
	return g.Title
}
