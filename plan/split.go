package plan

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/internal/sheet"
)

// Unique drops repeated identifiers, keeping the first occurrence.
func Unique(ids []contract.ID) []contract.ID {
	seen := make(map[contract.ID]struct{}, len(ids))
	out := make([]contract.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Split de-duplicates ids and cuts them into parts chunks of len/parts
// identifiers each, order preserved; the remainder goes to the last chunk.
// Fewer identifiers than parts yields empty leading chunks.
func Split(ids []contract.ID, parts int) ([][]contract.ID, error) {
	if parts < 1 {
		return nil, errors.Newf("parts must be at least 1, got %d", parts)
	}
	unique := Unique(ids)
	size := len(unique) / parts

	chunks := make([][]contract.ID, parts)
	for i := 0; i < parts; i++ {
		start := i * size
		end := start + size
		if i == parts-1 {
			end = len(unique)
		}
		chunks[i] = append([]contract.ID(nil), unique[start:end]...)
	}
	return chunks, nil
}

// Write stores ids as a one-column Contract_ID sheet at path (.xlsx or .csv).
func Write(path string, ids []contract.ID) error {
	rows := make([][]interface{}, len(ids))
	for i, id := range ids {
		rows[i] = []interface{}{string(id)}
	}
	if err := sheet.Write(path, []string{IDColumn}, rows, 24); err != nil {
		return errors.Wrapf(err, "failed to write id list %s", path)
	}
	return nil
}

// PartPaths names the output files of a split: <base>_part<N><ext> in dir.
func PartPaths(input, dir string, parts int) []string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	paths := make([]string, parts)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%s_part%d%s", base, i+1, ext))
	}
	return paths
}
