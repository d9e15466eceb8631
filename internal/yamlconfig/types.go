package yamlconfig

// rawDoc is the minimal shape every YAML document has in common, enough to
// dispatch on Kind before decoding the rest of the document into its
// specific struct.
type rawDoc struct {
	Kind string `yaml:"kind"`
}

// actionDoc is the shared shape of Build/Deploy/Run/Test documents, per §6
// "All actions". Kind-specific fields (Build?s copyFrom/allowPublish,
// Deploy's ports/ingresses/healthCheck, Run/Test's command/args) live
// entirely inside Spec, which is passed through to action.Config untouched
// for the Template Resolver and the action type's handlers to interpret.
type actionDoc struct {
	Kind         string         `yaml:"kind"`
	Type         string         `yaml:"type"`
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	Disabled     bool           `yaml:"disabled"`
	Dependencies []string       `yaml:"dependencies"`
	Build        string         `yaml:"build"`
	Spec         map[string]any `yaml:"spec"`
	Variables    map[string]any `yaml:"variables"`
	Varfiles     []string       `yaml:"varfiles"`
	Timeout      int            `yaml:"timeout"`
}

// groupDoc is the shape of a Group document: a name plus variables and
// varfiles. The loader records it on Model.Groups and does not merge it into
// sibling action documents.
type groupDoc struct {
	Kind      string         `yaml:"kind"`
	Name      string         `yaml:"name"`
	Variables map[string]any `yaml:"variables"`
	Varfiles  []string       `yaml:"varfiles"`
}

// projectDoc is the single per-tree Project document naming the project and
// its declared environments; the core only needs its name and default
// environment, everything else is a CLI/provider concern.
type projectDoc struct {
	Kind               string   `yaml:"kind"`
	Name               string   `yaml:"name"`
	DefaultEnvironment string   `yaml:"defaultEnvironment"`
	Environments       []string `yaml:"environments"`
}

// moduleDoc is the legacy, pre-action-split document shape: one module
// declares a build plus whichever of deploy/run/test it implies, via the
// inputs the old module system accepted. §4.3 step 1 normalizes this into
// one Build action and zero or more Deploy/Run/Test actions.
type moduleDoc struct {
	Kind         string         `yaml:"kind"`
	Type         string         `yaml:"type"`
	Name         string         `yaml:"name"`
	Disabled     bool           `yaml:"disabled"`
	Dependencies []string       `yaml:"dependencies"`
	Build        map[string]any `yaml:"build"`
	Deploy       map[string]any `yaml:"deploy"`
	Run          map[string]any `yaml:"run"`
	Test         map[string]any `yaml:"test"`
	Variables    map[string]any `yaml:"variables"`
}

// templateDoc captures ConfigTemplate/RenderTemplate documents structurally
// so a tree that declares them still loads; the loader does not itself
// implement template expansion (the YAML loader's internal mechanics are
// explicitly out of scope per §1 — only the schema it yields is specified),
// so these are surfaced to the caller unexpanded via Model.Templates.
type templateDoc struct {
	Kind   string         `yaml:"kind"`
	Name   string         `yaml:"name"`
	Fields map[string]any `yaml:",inline"`
}
