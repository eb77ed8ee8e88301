package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	untagged "github.com/wirefmt/untagged"
	"github.com/wirefmt/untagged/dsl"
	"github.com/wirefmt/untagged/internal/enforce"
	"github.com/wirefmt/untagged/schema"
	"github.com/wirefmt/untagged/source/simple"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "describe":
		describeCmd(os.Args[2:])
	case "verify":
		verifyCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `untagged CLI

Usage:
  untagged describe -schema def.yaml
  untagged verify -schema def.yaml -in payload.bin [-max-count N] [-max-depth N] [-max-bytes N]

describe prints the resolved struct table of a schema definition.
verify structurally validates an untagged payload against the schema's root
struct without decoding any values.`)
}

func loadSchema(path string) (*schema.Def, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return schema.ParseJSON(data)
	}
	return schema.ParseYAML(data)
}

func describeCmd(args []string) {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	var schemaPath string
	fs.StringVar(&schemaPath, "schema", "", "schema definition file (yaml or json)")
	_ = fs.Parse(args)
	if schemaPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	def, err := loadSchema(schemaPath)
	if err != nil {
		fatal(err)
	}
	if _, err := def.Resolve(); err != nil {
		fatal(err)
	}
	cyclic := cyclicStructs(def)
	for i, sd := range def.Structs {
		fmt.Printf("struct %s (depth %d", sd.Name, structDepth(def, i))
		if sd.Base != nil {
			fmt.Printf(", base %s", def.Structs[sd.Base.Struct].Name)
		}
		if cyclic[i] {
			fmt.Print(", self-referential")
		}
		fmt.Println(")")
		for _, fd := range sd.Fields {
			fmt.Printf("  %3d %-20s %s\n", fd.ID, fd.Name, refString(def, &fd.Type))
		}
	}
	fmt.Printf("root: %s\n", refString(def, &def.Root))
}

func verifyCmd(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var schemaPath, inPath string
	var maxCount, maxDepth uint
	var maxBytes int64
	fs.StringVar(&schemaPath, "schema", "", "schema definition file (yaml or json)")
	fs.StringVar(&inPath, "in", "", "payload file")
	fs.UintVar(&maxCount, "max-count", 0, "per-container element count limit (0 = unlimited)")
	fs.UintVar(&maxDepth, "max-depth", 0, "container nesting limit (0 = unlimited)")
	fs.Int64Var(&maxBytes, "max-bytes", 0, "consumed bytes limit (0 = unlimited)")
	_ = fs.Parse(args)
	if schemaPath == "" || inPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	def, err := loadSchema(schemaPath)
	if err != nil {
		fatal(err)
	}
	root, err := def.Resolve()
	if err != nil {
		fatal(err)
	}
	payload, err := os.ReadFile(inPath)
	if err != nil {
		fatal(err)
	}
	plan, err := untagged.Compile(root, dsl.SkipAll())
	if err != nil {
		fatal(err)
	}
	src := simple.NewBytes(payload)
	r := enforce.Wrap(src, enforce.Options{
		MaxCount: uint32(maxCount),
		MaxDepth: int(maxDepth),
		MaxBytes: maxBytes,
	})
	if err := plan.Execute(r); err != nil {
		fatal(err)
	}
	if n := src.Remaining(); n > 0 {
		fatal(fmt.Errorf("payload has %d trailing bytes after offset %d", n, src.Location()))
	}
	fmt.Printf("ok: %d bytes match %s\n", len(payload), refString(def, &def.Root))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "untagged:", err)
	os.Exit(1)
}

func structDepth(def *schema.Def, i int) int {
	d := 0
	for def.Structs[i].Base != nil {
		d++
		i = def.Structs[i].Base.Struct
	}
	return d
}

// refString renders a TypeRef for display.
func refString(def *schema.Def, t *schema.TypeRef) string {
	switch t.Kind {
	case schema.KindStruct:
		name := def.Structs[t.Struct].Name
		if t.Bonded {
			return "bonded<" + name + ">"
		}
		return name
	case schema.KindList, schema.KindSet:
		return fmt.Sprintf("%s<%s>", t.Kind, refString(def, t.Element))
	case schema.KindMap:
		return fmt.Sprintf("map<%s, %s>", refString(def, t.Key), refString(def, t.Element))
	default:
		return t.Kind.String()
	}
}

// cyclicStructs marks struct indices reachable from one of their own fields,
// directly or through container and map nesting.
func cyclicStructs(def *schema.Def) map[int]bool {
	out := map[int]bool{}
	for i := range def.Structs {
		seen := map[int]bool{}
		var walk func(t *schema.TypeRef) bool
		walk = func(t *schema.TypeRef) bool {
			switch t.Kind {
			case schema.KindStruct:
				if t.Struct == i {
					return true
				}
				if seen[t.Struct] {
					return false
				}
				seen[t.Struct] = true
				sd := &def.Structs[t.Struct]
				if sd.Base != nil && walk(sd.Base) {
					return true
				}
				for j := range sd.Fields {
					if walk(&sd.Fields[j].Type) {
						return true
					}
				}
			case schema.KindMap:
				return walk(t.Key) || walk(t.Element)
			case schema.KindList, schema.KindSet:
				return walk(t.Element)
			}
			return false
		}
		sd := &def.Structs[i]
		if sd.Base != nil && walk(sd.Base) {
			out[i] = true
			continue
		}
		for j := range sd.Fields {
			if walk(&sd.Fields[j].Type) {
				out[i] = true
				break
			}
		}
	}
	return out
}
