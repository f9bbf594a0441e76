package store

import "time"

// Binding kinds.
const (
	BindingImport = "import"
	BindingExport = "export"
)

type Build struct {
	ID             int64
	Entry          string
	OutputFile     string
	OutputHash     string
	StatementCount int
	StartedAt      time.Time
	FinishedAt     time.Time
}

type Module struct {
	ID        int64
	BuildID   int64
	Path      string
	Hash      string
	LineCount int
}

// Binding is one row of a module's import or export table. For imports,
// ExportedName is the name in the source module; for exports it is the
// public name and LocalName the name inside the module.
type Binding struct {
	ID           int64
	ModuleID     int64
	Kind         string
	LocalName    string
	ExportedName string
	Source       string
}

type Statement struct {
	ID          int64
	ModuleID    int64
	Ordinal     int
	Kind        string
	StartLine   int
	StartByte   int
	EndByte     int
	Defines     []string
	DependsOn   []string
	Modifies    []string
	Included    bool
	OutputOrder *int // nil when not included
}
