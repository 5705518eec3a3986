package render

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// FileName maps a subject id to a file-safe base name. Letters and digits of
// any script are kept (lowercased); everything else becomes '-'. Different ids
// can share a FileName; use FileNames when writing several subjects into one
// directory.
func FileName(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return "unnamed"
	}
	var b strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// FileNames hands out distinct base names within one output directory. The
// first id to claim a FileName gets it as is; later ids with the same
// FileName get a short hash of the raw id appended.
type FileNames struct {
	byName map[string]string
	byID   map[string]string
}

func NewFileNames() *FileNames {
	return &FileNames{byName: map[string]string{}, byID: map[string]string{}}
}

// Name returns the base name for id, the same one on every call.
func (n *FileNames) Name(id string) string {
	if name, ok := n.byID[id]; ok {
		return name
	}
	base := FileName(id)
	name := base
	if _, taken := n.byName[name]; taken {
		h := fnv.New32a()
		h.Write([]byte(id))
		name = fmt.Sprintf("%s-%08x", base, h.Sum32())
		for i := 2; ; i++ {
			if _, taken := n.byName[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s-%08x-%d", base, h.Sum32(), i)
		}
	}
	n.byName[name] = id
	n.byID[id] = name
	return name
}
