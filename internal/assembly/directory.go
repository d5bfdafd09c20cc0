// Package assembly maps contig accessions to genome assemblies and chromosome names.
package assembly

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
)

//go:embed data/*.tsv
var tables embed.FS

// Default assemblies loaded when none are requested.
var DefaultAssemblies = []string{"GRCh37", "GRCh38"}

// ErrConfiguration is returned when the directory cannot be built from the
// requested assemblies.
var ErrConfiguration = errors.New("assembly configuration error")

// Directory holds per-assembly accession/name maps and a reverse index from
// contig accession to assembly name. It is never mutated after New returns,
// so it is safe for concurrent reads.
type Directory struct {
	names    []string
	acToName map[string]map[string]string // assembly -> accession -> name
	nameToAc map[string]map[string]string // assembly -> name -> RefSeq accession
	byContig map[string]string            // accession -> assembly
}

// New builds a Directory for the given assemblies. An assembly without an
// embedded table, or a contig accession claimed by two assemblies, is a
// configuration error.
func New(assemblies ...string) (*Directory, error) {
	if len(assemblies) == 0 {
		assemblies = DefaultAssemblies
	}
	return build(tables, assemblies)
}

func build(fsys fs.FS, assemblies []string) (*Directory, error) {
	d := &Directory{
		acToName: make(map[string]map[string]string, len(assemblies)),
		nameToAc: make(map[string]map[string]string, len(assemblies)),
		byContig: make(map[string]string),
	}

	for _, name := range assemblies {
		if _, dup := d.acToName[name]; dup {
			continue
		}
		f, err := fsys.Open("data/" + name + ".tsv")
		if err != nil {
			return nil, fmt.Errorf("%w: assembly %q not supported (available: %s)",
				ErrConfiguration, name, strings.Join(Available(), ", "))
		}
		acToName, nameToAc, err := parseTable(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s table: %v", ErrConfiguration, name, err)
		}

		for ac := range acToName {
			if other, ok := d.byContig[ac]; ok {
				return nil, fmt.Errorf("%w: contig %s claimed by both %s and %s",
					ErrConfiguration, ac, other, name)
			}
			d.byContig[ac] = name
		}
		d.acToName[name] = acToName
		d.nameToAc[name] = nameToAc
		d.names = append(d.names, name)
	}

	return d, nil
}

// Available returns the assemblies that have an embedded table.
func Available() []string {
	entries, err := tables.ReadDir("data")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".tsv"))
	}
	sort.Strings(out)
	return out
}

// parseTable reads a name/refseq/genbank table. Comment lines start with '#'.
func parseTable(r io.Reader) (acToName, nameToAc map[string]string, err error) {
	acToName = make(map[string]string)
	nameToAc = make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("malformed line %q", line)
		}

		name := fields[0]
		refseq := fields[1]
		acToName[refseq] = name
		nameToAc[name] = refseq
		if len(fields) > 2 && fields[2] != "" {
			acToName[fields[2]] = name
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return acToName, nameToAc, nil
}

// Names returns the configured assemblies in registration order.
func (d *Directory) Names() []string {
	return append([]string(nil), d.names...)
}

// Resolve returns the assembly a contig accession belongs to.
func (d *Directory) Resolve(contig string) (string, bool) {
	name, ok := d.byContig[contig]
	return name, ok
}

// AccessionToName returns the accession -> chromosome name map for an assembly.
// The returned map must not be modified.
func (d *Directory) AccessionToName(assembly string) (map[string]string, bool) {
	m, ok := d.acToName[assembly]
	return m, ok
}

// NameToAccession returns the chromosome name -> RefSeq accession map for an assembly.
// The returned map must not be modified.
func (d *Directory) NameToAccession(assembly string) (map[string]string, bool) {
	m, ok := d.nameToAc[assembly]
	return m, ok
}

// ContigFor returns the RefSeq accession of a named chromosome in an assembly.
func (d *Directory) ContigFor(assembly, name string) (string, bool) {
	m, ok := d.NameToAccession(assembly)
	if !ok {
		return "", false
	}
	ac, ok := m[name]
	return ac, ok
}

// AssemblyMap returns a copy of the accession -> name map for an assembly,
// or an error naming the supported assemblies.
func (d *Directory) AssemblyMap(assembly string) (map[string]string, error) {
	m, ok := d.AccessionToName(assembly)
	if !ok {
		return nil, fmt.Errorf("%w: assembly %q not supported (supported: %s)",
			ErrConfiguration, assembly, strings.Join(d.names, ", "))
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}
