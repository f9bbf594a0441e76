package main

import (
	"time"

	"github.com/jward/treeshake"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIBuild is a JSON-friendly build summary.
type CLIBuild struct {
	ID             int64     `json:"id,omitempty"`
	Entry          string    `json:"entry"`
	OutputFile     string    `json:"output_file"`
	OutputHash     string    `json:"output_hash,omitempty"`
	Modules        []string  `json:"modules,omitempty"`
	StatementCount int       `json:"statement_count"`
	DurationMS     int64     `json:"duration_ms,omitempty"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	FinishedAt     time.Time `json:"finished_at,omitzero"`
}

// CLIModule is a JSON-friendly fetched module.
type CLIModule struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Hash      string `json:"hash"`
	LineCount int    `json:"line_count"`
}

// CLIBinding is a JSON-friendly import or export binding.
type CLIBinding struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	LocalName    string `json:"local_name"`
	ExportedName string `json:"exported_name"`
	Source       string `json:"source,omitempty"`
}

// CLIStatement is a JSON-friendly analysed statement.
type CLIStatement struct {
	ID          int64    `json:"id"`
	Module      string   `json:"module,omitempty"`
	Ordinal     int      `json:"ordinal"`
	Kind        string   `json:"kind"`
	Line        int      `json:"line"`
	Defines     []string `json:"defines"`
	DependsOn   []string `json:"depends_on"`
	Modifies    []string `json:"modifies"`
	Included    bool     `json:"included"`
	OutputOrder *int     `json:"output_order,omitempty"`
}

// CLIDeleted reports a removed build.
type CLIDeleted struct {
	BuildID int64 `json:"build_id"`
}

func buildToCLI(res *treeshake.Result, outputFile string) CLIBuild {
	return CLIBuild{
		ID:             res.BuildID,
		Entry:          res.Entry,
		OutputFile:     outputFile,
		Modules:        res.Modules,
		StatementCount: res.Statements,
		DurationMS:     res.Duration.Milliseconds(),
	}
}

func buildRecordToCLI(b *treeshake.Build) CLIBuild {
	return CLIBuild{
		ID:             b.ID,
		Entry:          b.Entry,
		OutputFile:     b.OutputFile,
		OutputHash:     b.OutputHash,
		StatementCount: b.StatementCount,
		DurationMS:     b.FinishedAt.Sub(b.StartedAt).Milliseconds(),
		StartedAt:      b.StartedAt,
		FinishedAt:     b.FinishedAt,
	}
}

func moduleToCLI(m *treeshake.ModuleRecord) CLIModule {
	return CLIModule{ID: m.ID, Path: m.Path, Hash: m.Hash, LineCount: m.LineCount}
}

func bindingToCLI(b *treeshake.Binding) CLIBinding {
	return CLIBinding{
		ID:           b.ID,
		Kind:         b.Kind,
		LocalName:    b.LocalName,
		ExportedName: b.ExportedName,
		Source:       b.Source,
	}
}

func statementToCLI(st *treeshake.StatementRecord, module string) CLIStatement {
	return CLIStatement{
		ID:          st.ID,
		Module:      module,
		Ordinal:     st.Ordinal,
		Kind:        st.Kind,
		Line:        st.StartLine,
		Defines:     nonNil(st.Defines),
		DependsOn:   nonNil(st.DependsOn),
		Modifies:    nonNil(st.Modifies),
		Included:    st.Included,
		OutputOrder: st.OutputOrder,
	}
}

// nonNil keeps empty name lists as [] in JSON.
func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
