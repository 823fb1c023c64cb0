package detect

import (
	"fmt"
	"sort"
	"strings"

	"archon/internal/parse"
)

// crudVerbs are the access-method prefixes that mark a persistence surface.
var crudVerbs = []string{"Get", "Find", "List", "Save", "Create", "Update", "Delete", "Store", "Load"}

// detectRepository recognizes a persistence abstraction.
//
// Minimum evidence: a type or interface named with a storage suffix whose
// method set carries at least two CRUD-shaped methods. Confidence: 0.5
// base, +0.1 per CRUD method beyond the second, +0.1 when an interface
// abstracts the concrete store.
func detectRepository(m *parse.Module, _ Options) *Finding {
	candidates := make(map[string][]string)
	for iface, methods := range m.InterfaceMethods {
		if hasStorageName(iface) {
			candidates[iface] = append([]string(nil), methods...)
		}
	}
	for recv, set := range m.MethodSets {
		if !hasStorageName(recv) {
			continue
		}
		for _, d := range set {
			candidates[recv] = append(candidates[recv], d.Name)
		}
	}

	names := make([]string, 0, len(candidates))
	for n := range candidates {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		crud := 0
		for _, meth := range candidates[name] {
			for _, verb := range crudVerbs {
				if strings.HasPrefix(meth, verb) {
					crud++
					break
				}
			}
		}
		if crud < 2 {
			continue
		}
		cues := crud - 2
		if _, isIface := m.InterfaceMethods[name]; isIface {
			cues++
		}
		return &Finding{
			Name:       "repository",
			Confidence: confidence(cues),
			Rationale:  fmt.Sprintf("%s exposes %d data-access methods behind a storage surface", name, crud),
			Locations:  spanOf(m, name),
		}
	}
	return nil
}

// detectLayered recognizes stacked-responsibility naming within a module.
//
// Minimum evidence: types from at least two distinct layer roles (handler,
// service, repository/store) declared together. Confidence: 0.5 base, +0.1
// when all three roles appear, +0.1 when an upper layer holds a lower
// layer as a field.
func detectLayered(m *parse.Module, _ Options) *Finding {
	roles := map[string][]string{}
	for _, d := range m.Defs {
		if d.Kind != parse.KindStruct && d.Kind != parse.KindInterface {
			continue
		}
		switch {
		case hasAnySuffix(d.Name, "Handler", "Controller", "API"):
			roles["handler"] = append(roles["handler"], d.Name)
		case hasAnySuffix(d.Name, "Service", "Usecase", "UseCase"):
			roles["service"] = append(roles["service"], d.Name)
		case hasStorageName(d.Name):
			roles["storage"] = append(roles["storage"], d.Name)
		}
	}
	if len(roles) < 2 {
		return nil
	}

	cues := 0
	if len(roles) == 3 {
		cues++
	}
	if layerHoldsLayer(m, roles["handler"], roles["service"]) ||
		layerHoldsLayer(m, roles["service"], roles["storage"]) {
		cues++
	}

	var present []string
	for _, role := range []string{"handler", "service", "storage"} {
		if len(roles[role]) > 0 {
			present = append(present, role)
		}
	}
	return &Finding{
		Name:       "layered",
		Confidence: confidence(cues),
		Rationale:  fmt.Sprintf("module declares %s layers side by side", strings.Join(present, ", ")),
	}
}

// detectHexagonal recognizes ports-and-adapters wiring.
//
// Minimum evidence: a core type whose fields include at least two locally
// declared interfaces injected through a constructor. Confidence: 0.5
// base, +0.1 per port beyond the second, +0.1 when a port carries a Port
// suffix.
func detectHexagonal(m *parse.Module, _ Options) *Finding {
	for _, typeName := range structNames(m) {
		ports := 0
		suffixed := false
		for _, f := range m.Fields[typeName] {
			elem := strings.TrimPrefix(f.TypeName, "*")
			if _, ok := m.InterfaceMethods[elem]; !ok {
				continue
			}
			ports++
			if hasAnySuffix(elem, "Port") {
				suffixed = true
			}
		}
		if ports < 2 {
			continue
		}
		if !hasConstructor(m, typeName) {
			continue
		}

		cues := ports - 2
		if suffixed {
			cues++
		}
		return &Finding{
			Name:       "hexagonal",
			Confidence: confidence(cues),
			Rationale:  fmt.Sprintf("%s receives %d interface ports through its constructor", typeName, ports),
			Locations:  spanOf(m, typeName),
		}
	}
	return nil
}

// detectMVC recognizes model/view/controller naming in one module.
//
// Minimum evidence: at least two of the three role names declared as
// types. Confidence: 0.5 base, +0.1 when all three roles appear, +0.1
// when the controller holds the model or view as a field.
func detectMVC(m *parse.Module, _ Options) *Finding {
	var models, views, controllers []string
	for _, d := range m.Defs {
		if d.Kind != parse.KindStruct && d.Kind != parse.KindInterface {
			continue
		}
		switch {
		case hasAnySuffix(d.Name, "Model"):
			models = append(models, d.Name)
		case hasAnySuffix(d.Name, "View", "Template", "Renderer"):
			views = append(views, d.Name)
		case hasAnySuffix(d.Name, "Controller"):
			controllers = append(controllers, d.Name)
		}
	}
	present := 0
	for _, group := range [][]string{models, views, controllers} {
		if len(group) > 0 {
			present++
		}
	}
	if present < 2 {
		return nil
	}

	cues := 0
	if present == 3 {
		cues++
	}
	if layerHoldsLayer(m, controllers, models) || layerHoldsLayer(m, controllers, views) {
		cues++
	}
	return &Finding{
		Name:       "mvc",
		Confidence: confidence(cues),
		Rationale:  fmt.Sprintf("module separates %d of the model/view/controller roles", present),
	}
}

func hasStorageName(name string) bool {
	return hasAnySuffix(name, "Repository", "Repo", "Store", "Storage", "DAO")
}

// layerHoldsLayer reports whether any upper type declares a field typed as
// one of the lower types.
func layerHoldsLayer(m *parse.Module, upper, lower []string) bool {
	for _, u := range upper {
		for _, f := range m.Fields[u] {
			elem := strings.TrimPrefix(f.TypeName, "*")
			for _, l := range lower {
				if elem == l {
					return true
				}
			}
		}
	}
	return false
}

// hasConstructor reports whether a New*-style function returning the type
// exists in the module.
func hasConstructor(m *parse.Module, typeName string) bool {
	for _, fd := range funcDecls(m) {
		if strings.HasPrefix(fd.Name.Name, "New") && returnsType(fd, typeName) {
			return true
		}
	}
	return false
}
