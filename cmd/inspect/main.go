package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/wirebind/wirebind/codec"
	"github.com/wirebind/wirebind/conformance"
	"github.com/wirebind/wirebind/shape"
	"github.com/wirebind/wirebind/shapefile"
)

func main() {
	var (
		shapesFile  = flag.String("shapes", "", "Path to a YAML shape document")
		shapeName   = flag.String("shape", "", "Shape to inspect (optional)")
		corpus      = flag.Bool("corpus", false, "List the conformance corpus")
		caseID      = flag.Int("case", -1, "Corpus case to inspect by reference id")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *shapesFile == "" && !*corpus && *caseID < 0 && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: inspect -shapes <file.yaml> [-shape name]")
		fmt.Fprintln(os.Stderr, "       inspect -corpus [-case id]")
		fmt.Fprintln(os.Stderr, "       inspect [-shapes <file.yaml>] -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*shapesFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*shapesFile, *shapeName, *caseID, *corpus); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(shapesFile, shapeName string, caseID int, listCorpus bool) error {
	if caseID >= 0 {
		return inspectCase(caseID)
	}
	if listCorpus {
		cases := conformance.Corpus()
		fmt.Printf("Conformance corpus: %d cases\n\n", len(cases))
		for _, c := range cases {
			id := " -"
			if c.RefID >= 0 {
				id = fmt.Sprintf("%2d", c.RefID)
			}
			fmt.Printf("  %s  %-26s depth %d  %3d bytes\n", id, c.Name, c.Depth, len(c.Wire))
		}
		return nil
	}

	shapes, err := shapefile.LoadFile(shapesFile)
	if err != nil {
		return fmt.Errorf("load shapes: %w", err)
	}

	fmt.Printf("Document: %s\n", shapesFile)
	fmt.Printf("Shapes: %d\n\n", len(shapes))

	if shapeName != "" {
		s, ok := shapes[shapeName]
		if !ok {
			return fmt.Errorf("document does not define %q", shapeName)
		}
		fmt.Print(describeShape(shapeName, s))
		return nil
	}

	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, shapes[name])
	}
	return nil
}

func inspectCase(id int) error {
	c, ok := conformance.ByID(id)
	if !ok {
		return fmt.Errorf("no corpus case with reference id %d", id)
	}

	fmt.Printf("Case %d: %s\n", c.RefID, c.Name)
	fmt.Printf("Go type: %T\n", c.Value)
	fmt.Printf("Value: %+v\n", c.Value)
	fmt.Printf("Depth: %d\n", c.Depth)
	fmt.Printf("Wire (%d bytes): % x\n\n", len(c.Wire), c.Wire)
	fmt.Print(describeShape(c.Shape.Name, c.Shape))

	if _, err := roundTripCase(c, c.Depth); err != nil {
		return fmt.Errorf("round trip: %w", err)
	}
	fmt.Printf("\nRound trip ok at depth %d.\n", c.Depth)
	return nil
}

// describeShape renders one shape with its immediate children, one per
// line, plus the fingerprint that names this wire contract.
func describeShape(name string, s *shape.Shape) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s: %s\n", name, s)
	switch s.Kind {
	case shape.KindRecord:
		for _, f := range s.Fields {
			fmt.Fprintf(&b, "    %s: %s\n", f.Name, f.Shape)
		}
	case shape.KindEnum:
		for _, v := range s.Variants {
			fmt.Fprintf(&b, "    %s = %d\n", v.Name, v.Value)
		}
	case shape.KindUnion:
		for _, v := range s.Variants {
			fmt.Fprintf(&b, "    %s(%s)\n", v.Name, v.Payload)
		}
	}
	fmt.Fprintf(&b, "    fingerprint %x\n", shape.Fingerprint(s))
	return b.String()
}

// roundTripCase encodes and decodes the case value at the given depth
// allowance and checks both directions against the recorded wire bytes.
func roundTripCase(c conformance.Case, depth uint8) ([]byte, error) {
	plan, err := codec.Compile(c.Shape, reflect.TypeOf(c.Value))
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	buf := make([]byte, len(c.Wire)+16)
	n, err := codec.Serialize(plan, c.Value, buf, depth)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	if !bytes.Equal(buf[:n], c.Wire) {
		return nil, fmt.Errorf("encoded % x, want % x", buf[:n], c.Wire)
	}

	decoded, err := codec.Deserialize(plan, buf[:n], nil, depth)
	if err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}
	if !conformance.Equal(decoded, c.Value) {
		return nil, fmt.Errorf("decoded value differs: %+v", decoded)
	}
	return buf[:n], nil
}
