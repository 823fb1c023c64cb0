package detect

import (
	"fmt"
	"strings"

	"archon/internal/parse"
)

// detectSingleton recognizes a guarded single-instance accessor.
//
// Minimum evidence: a struct type, a package-level variable holding its
// instance, and an accessor function returning that type. Confidence:
// 0.5 base, +0.1 sync.Once guard, +0.1 nil-check guard, +0.1 unexported
// struct type (no construction path outside the accessor).
func detectSingleton(m *parse.Module, _ Options) *Finding {
	for _, typeName := range structNames(m) {
		instanceVar := ""
		for _, d := range m.Defs {
			if d.Kind == parse.KindVar && strings.Contains(strings.ToLower(d.Name), strings.ToLower(typeName)) {
				instanceVar = d.Name
			}
		}

		for _, fd := range funcDecls(m) {
			if fd.Type.Params != nil && len(fd.Type.Params.List) > 0 {
				continue
			}
			if !returnsType(fd, typeName) {
				continue
			}
			once, nilGuard := mentionsSyncOnce(fd)
			if !once && !nilGuard {
				continue
			}
			if instanceVar == "" && !once {
				continue
			}

			cues := 0
			if once {
				cues++
			}
			if nilGuard {
				cues++
			}
			if typeName != "" && !isExportedName(typeName) {
				cues++
			}
			return &Finding{
				Name:       "singleton",
				Confidence: confidence(cues),
				Rationale:  fmt.Sprintf("%s returns a guarded package-level %s instance", fd.Name.Name, typeName),
				Locations:  spanOf(m, fd.Name.Name),
			}
		}
	}
	return nil
}

// detectStrategy recognizes runtime-selected interchangeable behavior.
//
// Minimum evidence: either a struct storing a func-typed field it invokes
// from a method, or a one-method interface with at least two
// implementations. Confidence: 0.5 base, +0.1 per implementation beyond
// the second, +0.1 when a struct field injects the interface.
func detectStrategy(m *parse.Module, _ Options) *Finding {
	// Stored callable invoked later.
	for _, typeName := range structNames(m) {
		for _, f := range m.Fields[typeName] {
			if !f.FuncType {
				continue
			}
			for _, fd := range methodDecls(m, typeName) {
				if callsFieldAsFunc(fd, f.Name) {
					return &Finding{
						Name:       "strategy",
						Confidence: confidence(1),
						Rationale:  fmt.Sprintf("%s invokes stored callable %s.%s at runtime", fd.Name.Name, typeName, f.Name),
						Locations:  spanOf(m, typeName),
					}
				}
			}
		}
	}

	// One-method interface with an implementation family.
	for _, ifaceName := range interfaceNames(m) {
		methods := m.InterfaceMethods[ifaceName]
		if len(methods) != 1 {
			continue
		}
		impls := 0
		for _, recv := range structNames(m) {
			for _, meth := range m.MethodSets[recv] {
				if meth.Name == methods[0] {
					impls++
					break
				}
			}
		}
		if impls < 2 {
			continue
		}

		cues := impls - 2
		injected := false
		for _, typeName := range structNames(m) {
			for _, f := range m.Fields[typeName] {
				if f.TypeName == ifaceName {
					injected = true
				}
			}
		}
		if injected {
			cues++
		}
		return &Finding{
			Name:       "strategy",
			Confidence: confidence(cues),
			Rationale:  fmt.Sprintf("interface %s has %d same-shaped implementations selected at runtime", ifaceName, impls),
			Locations:  spanOf(m, ifaceName),
		}
	}
	return nil
}

// detectAdapter recognizes 1:1 delegation to a wrapped, differently-named
// value.
//
// Minimum evidence: a struct holding a named non-func field and at least
// two thin methods forwarding to it. Confidence: 0.5 base, +0.1 per
// delegating method beyond the second, +0.1 when the wrapped type comes
// from another package.
func detectAdapter(m *parse.Module, _ Options) *Finding {
	for _, typeName := range structNames(m) {
		for _, f := range m.Fields[typeName] {
			if f.FuncType || f.Embedded {
				continue
			}
			delegates := 0
			renamed := 0
			for _, fd := range methodDecls(m, typeName) {
				if !isThinDelegate(fd, f.Name) {
					continue
				}
				delegates++
				for _, target := range fieldAccessedOn(fd, f.Name) {
					if target != fd.Name.Name {
						renamed++
					}
				}
			}
			if delegates < 2 {
				continue
			}

			cues := delegates - 2
			if strings.Contains(f.TypeName, ".") {
				cues++
			}
			if renamed > 0 {
				cues++
			}
			return &Finding{
				Name:       "adapter",
				Confidence: confidence(cues),
				Rationale:  fmt.Sprintf("%s delegates %d methods to wrapped %s field %s", typeName, delegates, f.TypeName, f.Name),
				Locations:  spanOf(m, typeName),
			}
		}
	}
	return nil
}

// detectFacade recognizes a thin orchestration front over several
// collaborators.
//
// Minimum evidence: an exported type whose methods fan out to at least
// three distinct collaborator fields. Confidence: 0.5 base, +0.1 per
// collaborator beyond the third.
func detectFacade(m *parse.Module, _ Options) *Finding {
	for _, typeName := range structNames(m) {
		fields := m.Fields[typeName]
		if !isExportedName(typeName) || len(fields) < 3 {
			continue
		}
		touched := make(map[string]bool)
		for _, fd := range methodDecls(m, typeName) {
			for _, f := range fields {
				if len(fieldAccessedOn(fd, f.Name)) > 0 {
					touched[f.Name] = true
				}
			}
		}
		if len(touched) < 3 {
			continue
		}
		return &Finding{
			Name:       "facade",
			Confidence: confidence(len(touched) - 3),
			Rationale:  fmt.Sprintf("%s orchestrates %d collaborators behind one surface", typeName, len(touched)),
			Locations:  spanOf(m, typeName),
		}
	}
	return nil
}

// detectFactory recognizes centralized construction behind an interface.
//
// Minimum evidence: a constructor-named function returning a locally
// declared interface. Confidence: 0.5 base, +0.1 per extra constructor,
// +0.1 when at least two concrete implementations exist.
func detectFactory(m *parse.Module, _ Options) *Finding {
	var hits []string
	returned := ""
	for _, fd := range funcDecls(m) {
		name := fd.Name.Name
		if !strings.HasPrefix(name, "New") && !strings.HasPrefix(name, "Make") && !strings.HasPrefix(name, "Create") {
			continue
		}
		for _, iface := range interfaceNames(m) {
			if returnsType(fd, iface) {
				hits = append(hits, name)
				returned = iface
				break
			}
		}
	}
	if len(hits) == 0 {
		return nil
	}

	cues := len(hits) - 1
	impls := 0
	if methods := m.InterfaceMethods[returned]; len(methods) > 0 {
		for _, recv := range structNames(m) {
			for _, meth := range m.MethodSets[recv] {
				if meth.Name == methods[0] {
					impls++
					break
				}
			}
		}
	}
	if impls >= 2 {
		cues++
	}
	return &Finding{
		Name:       "factory",
		Confidence: confidence(cues),
		Rationale:  fmt.Sprintf("%s hides concrete types behind interface %s", strings.Join(hits, ", "), returned),
		Locations:  spanOf(m, hits[0]),
	}
}

// detectBuilder recognizes chainable construction.
//
// Minimum evidence: a type with at least three methods returning the
// receiver type. Confidence: 0.5 base, +0.1 per chain method beyond the
// third, +0.1 when a terminal Build-like method exists.
func detectBuilder(m *parse.Module, _ Options) *Finding {
	for _, typeName := range structNames(m) {
		chain := 0
		terminal := false
		for _, fd := range methodDecls(m, typeName) {
			if returnsType(fd, typeName) {
				chain++
				continue
			}
			if hasAnySuffix(fd.Name.Name, "Build", "Done", "Finish") {
				terminal = true
			}
		}
		if chain < 3 {
			continue
		}

		cues := chain - 3
		if terminal {
			cues++
		}
		return &Finding{
			Name:       "builder",
			Confidence: confidence(cues),
			Rationale:  fmt.Sprintf("%s chains %d self-returning methods", typeName, chain),
			Locations:  spanOf(m, typeName),
		}
	}
	return nil
}

// detectObserver recognizes subscriber registration plus broadcast.
//
// Minimum evidence: a type holding a slice of callbacks or subscriber
// values, a registration method appending to it, and a method calling
// through it. Confidence: 0.5 base, +0.1 when the element type is an
// interface, +0.1 when the notify method ranges the list.
func detectObserver(m *parse.Module, _ Options) *Finding {
	for _, typeName := range structNames(m) {
		for _, f := range m.Fields[typeName] {
			if !strings.HasPrefix(f.TypeName, "[]") {
				continue
			}
			elem := strings.TrimPrefix(f.TypeName, "[]")
			isCallbackSlice := strings.HasPrefix(elem, "func")
			_, isIfaceSlice := m.InterfaceMethods[strings.TrimPrefix(elem, "*")]
			if !isCallbackSlice && !isIfaceSlice {
				continue
			}

			registers := false
			notifies := false
			for _, fd := range methodDecls(m, typeName) {
				if appendsToField(fd, f.Name) {
					registers = true
				}
				if len(fieldAccessedOn(fd, f.Name)) > 0 || callsFieldAsFunc(fd, f.Name) || rangesOverField(fd, f.Name) {
					notifies = true
				}
			}
			if !registers || !notifies {
				continue
			}

			cues := 0
			if isIfaceSlice {
				cues++
			}
			return &Finding{
				Name:       "observer",
				Confidence: confidence(cues + 1),
				Rationale:  fmt.Sprintf("%s registers subscribers in %s and notifies them", typeName, f.Name),
				Locations:  spanOf(m, typeName),
			}
		}
	}
	return nil
}

// detectDecorator recognizes same-interface wrapping.
//
// Minimum evidence: a struct embedding or holding an interface declared in
// the module while implementing at least one of that interface's methods
// with a forwarding body. Confidence: 0.5 base, +0.1 per forwarded method
// beyond the first.
func detectDecorator(m *parse.Module, _ Options) *Finding {
	for _, typeName := range structNames(m) {
		for _, f := range m.Fields[typeName] {
			ifaceMethods, ok := m.InterfaceMethods[strings.TrimPrefix(f.TypeName, "*")]
			if !ok {
				continue
			}
			forwarded := 0
			for _, fd := range methodDecls(m, typeName) {
				if !nameIn(fd.Name.Name, ifaceMethods) {
					continue
				}
				if f.Embedded || len(fieldAccessedOn(fd, f.Name)) > 0 {
					forwarded++
				}
			}
			if forwarded == 0 {
				continue
			}
			return &Finding{
				Name:       "decorator",
				Confidence: confidence(forwarded - 1),
				Rationale:  fmt.Sprintf("%s wraps %s and forwards %d of its methods", typeName, f.TypeName, forwarded),
				Locations:  spanOf(m, typeName),
			}
		}
	}
	return nil
}

// detectFlyweightLiterals flags heavy literal repetition as shared-state
// material. It requires the optional repeated-literal indicator: when that
// source is disabled the detector cannot evaluate and returns no Finding
// rather than a low-confidence guess.
//
// Minimum evidence: at least three distinct literals repeated at the
// configured threshold. Confidence: 0.5 base, +0.1 per repeated literal
// beyond the third.
func detectFlyweightLiterals(m *parse.Module, opts Options) *Finding {
	if !opts.RepeatedLiterals {
		return nil
	}
	min := opts.RepeatedLiteralMin
	if min <= 0 {
		min = 3
	}
	repeated := m.RepeatedLiteralCount(min)
	if repeated < 3 {
		return nil
	}
	return &Finding{
		Name:       "flyweight",
		Confidence: confidence(repeated - 3),
		Rationale:  fmt.Sprintf("%d distinct literals repeat %d+ times; extract shared constants", repeated, min),
	}
}

func isExportedName(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

func nameIn(name string, names []string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
