package treeshake

import (
	"fmt"
	"strings"
	"time"

	"github.com/jward/treeshake/internal/store"
)

// Generate concatenates the output text of every included statement, in
// closure order, one per line. Statements that emit nothing are skipped.
func (b *Bundle) Generate() string {
	parts := make([]string, 0, len(b.included))
	for _, st := range b.included {
		m := b.modules[st.Module]
		if m == nil {
			continue
		}
		if text := m.emit(st); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// Record writes the manifest of the last Build into ds: the build itself,
// every fetched module with its bindings, and every statement with its
// analysis and whether and where it was emitted.
func (b *Bundle) Record(ds store.DataStore, outputFile, code string, started time.Time) error {
	if len(b.order) == 0 {
		return fmt.Errorf("record: nothing built")
	}

	build := &store.Build{
		Entry:      b.order[0].Path,
		OutputFile: outputFile,
		StartedAt:  started,
	}
	if _, err := ds.InsertBuild(build); err != nil {
		return err
	}

	outputOrder := make(map[*Statement]int, len(b.included))
	for i, st := range b.included {
		outputOrder[st] = i
	}

	for _, m := range b.order {
		mod := &store.Module{BuildID: build.ID, Path: m.Path, Hash: m.Hash, LineCount: m.LineCount}
		if _, err := ds.InsertModule(mod); err != nil {
			return err
		}
		if err := recordBindings(ds, mod.ID, m); err != nil {
			return err
		}
		for _, st := range m.Statements {
			row := &store.Statement{
				ModuleID:  mod.ID,
				Ordinal:   st.Index,
				Kind:      st.Kind,
				StartLine: st.Line,
				StartByte: int(st.Start),
				EndByte:   int(st.End),
				Defines:   st.Defines.Slice(),
				DependsOn: st.DependsOn.Slice(),
				Modifies:  st.Modifies.Slice(),
				Included:  st.Included,
			}
			if order, ok := outputOrder[st]; ok {
				row.OutputOrder = &order
			}
			if _, err := ds.InsertStatement(row); err != nil {
				return err
			}
		}
	}

	build.OutputHash = store.ContentHash([]byte(code))
	build.StatementCount = len(b.included)
	build.FinishedAt = time.Now()
	return ds.FinishBuild(build)
}

func recordBindings(ds store.DataStore, moduleID int64, m *Module) error {
	for _, local := range m.importOrder {
		imp := m.Imports[local]
		_, err := ds.InsertBinding(&store.Binding{
			ModuleID:     moduleID,
			Kind:         store.BindingImport,
			LocalName:    imp.LocalName,
			ExportedName: imp.Name,
			Source:       imp.Source,
		})
		if err != nil {
			return err
		}
	}
	for _, name := range m.exportOrder {
		exp := m.Exports[name]
		_, err := ds.InsertBinding(&store.Binding{
			ModuleID:     moduleID,
			Kind:         store.BindingExport,
			LocalName:    exp.LocalName,
			ExportedName: exp.Name,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
