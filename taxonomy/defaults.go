package taxonomy

// DefaultRootConcept is the concept name asked about in the root category.
const DefaultRootConcept = "root"

// Default returns the hand-tool woodworking taxonomy:
// root -> joints -> operations -> tools.
func Default() *Table {
	return &Table{
		SystemPrompt:       "You are an expert in the domain of hand tool woodworking.",
		CommonInstructions: []string{"Do not place aliases or alternate names in parenthesis."},
		Root:               "root",
		RootConcept:        DefaultRootConcept,
		Categories: []Category{
			{
				Name: "root",
				Question: `Create an object where name is "root", description is "N/A", aliases is an empty array, ` +
					`and joints is a list of woodworking joints that are used to join wooden workpieces together.`,
				Children: []string{"joints"},
			},
			{
				Name: "joints",
				Question: "Describe the <name> woodworking joint. Include the joint name, a short description, " +
					"any common aliases, and the name of woodworking operations used to form the joint. " +
					"Do not include the names of operations for assembling the joint with glue or fasteners. " +
					"<commonUserMessages>",
				Children: []string{"operations"},
				Graph:    true,
			},
			{
				Name: "operations",
				Question: "Describe the <name> woodworking operation. Include the operation name, a short description, " +
					"any common aliases, and the name of woodworking hand tools used to complete the operation. " +
					"<commonUserMessages>",
				Children: []string{"tools"},
				Graph:    true,
			},
			{
				Name: "tools",
				Question: "Describe the <name> woodworking tool. Include the tool name, a short description, " +
					"and any common aliases. <commonUserMessages>",
				Graph: true,
			},
		},
	}
}
