package yamlconfig

// Model is the parsed, not-yet-normalized contents of a configuration tree:
// every document, grouped by kind, before module→action conversion and
// dependency-string resolution.
type Model struct {
	Project *Project
	Groups  []*Group
	Modules []*Module
	Actions []*ActionDecl
	// Templates holds ConfigTemplate/RenderTemplate documents verbatim;
	// see templateDoc's doc comment for why they are not expanded here.
	Templates []map[string]any
}

// Project is the loaded Project document, or nil if the tree declared none.
type Project struct {
	Name               string
	DefaultEnvironment string
	Environments       []string
}

// Group is one parsed Group document. Its variables and varfiles are kept
// here as declared; Normalize does not apply them to any action.
type Group struct {
	Name      string
	Variables map[string]any
	Varfiles  []string
}

// ActionDecl is one parsed Build/Deploy/Run/Test document, with its
// dependency strings still unparsed (ParseRef happens once every module has
// also been expanded into actions, so a dependency naming a module-derived
// action resolves correctly).
type ActionDecl struct {
	Kind         string // "build" | "deploy" | "run" | "test"
	Type         string
	Name         string
	SourcePath   string
	Disabled     bool
	Dependencies []string
	Build        string
	Spec         map[string]any
	Variables    map[string]any
	Timeout      int
}

// Module is one parsed legacy Module document, still in its pre-split form.
type Module struct {
	Type         string
	Name         string
	SourcePath   string
	Disabled     bool
	Dependencies []string
	Build        map[string]any
	Deploy       map[string]any
	Run          map[string]any
	Test         map[string]any
	Variables    map[string]any
}
