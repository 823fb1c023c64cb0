package mcp

import (
	"context"
	"fmt"

	"archon/internal/catalog"
	"archon/internal/transform"
)

func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing or invalid %q parameter", key)
	}
	return v, nil
}

func stringSliceParam(params map[string]interface{}, key string) ([]string, error) {
	raw, ok := params[key].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("missing or invalid %q parameter", key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%q entries must be strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

func boolParam(params map[string]interface{}, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func categoryParam(params map[string]interface{}) (catalog.Category, error) {
	v, _ := params["category"].(string)
	switch cat := catalog.Category(v); cat {
	case "", catalog.CategoryPattern, catalog.CategoryArchitecture:
		return cat, nil
	default:
		return "", fmt.Errorf("unknown category %q", v)
	}
}

func (s *Server) toolDetect(params map[string]interface{}) (interface{}, error) {
	paths, err := stringSliceParam(params, "paths")
	if err != nil {
		return nil, err
	}
	category, err := categoryParam(params)
	if err != nil {
		return nil, err
	}
	results, err := s.engine.Detect(context.Background(), paths, category)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"results": results}, nil
}

func (s *Server) toolPropose(params map[string]interface{}) (interface{}, error) {
	paths, err := stringSliceParam(params, "paths")
	if err != nil {
		return nil, err
	}
	category, err := categoryParam(params)
	if err != nil {
		return nil, err
	}
	results, err := s.engine.Propose(context.Background(), paths, category, boolParam(params, "withMetrics"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"results": results}, nil
}

func (s *Server) toolAnalyzeMetrics(params map[string]interface{}) (interface{}, error) {
	paths, err := stringSliceParam(params, "paths")
	if err != nil {
		return nil, err
	}
	vectors, err := s.engine.AnalyzeMetrics(context.Background(), paths)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"signals": vectors}, nil
}

func (s *Server) toolThresholdedEnforcement(params map[string]interface{}) (interface{}, error) {
	paths, err := stringSliceParam(params, "paths")
	if err != nil {
		return nil, err
	}
	results, err := s.engine.ThresholdedEnforcement(context.Background(), paths)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"results": results}, nil
}

func (s *Server) toolAdvise(params map[string]interface{}) (interface{}, error) {
	target, err := stringParam(params, "target")
	if err != nil {
		return nil, err
	}
	return s.engine.Advise(target)
}

func (s *Server) toolIntroduce(params map[string]interface{}) (interface{}, error) {
	target, err := stringParam(params, "target")
	if err != nil {
		return nil, err
	}
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	outPath, _ := params["outPath"].(string)

	cand, err := s.engine.Introduce(context.Background(), target, path, transform.Options{
		DryRun:  boolParam(params, "dryRun"),
		OutPath: outPath,
	})
	if err != nil {
		return nil, err
	}
	return cand, nil
}

func (s *Server) toolScan(params map[string]interface{}) (interface{}, error) {
	paths, err := stringSliceParam(params, "paths")
	if err != nil {
		return nil, err
	}
	results, truncated, err := s.engine.ScanPaths(context.Background(), paths, boolParam(params, "withMetrics"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"results":   results,
		"truncated": truncated,
	}, nil
}

func (s *Server) toolListTargets(params map[string]interface{}) (interface{}, error) {
	category, err := categoryParam(params)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"targets": s.engine.ListTargets(category)}, nil
}

func (s *Server) toolGetStatus(params map[string]interface{}) (interface{}, error) {
	return s.engine.GetStatus(), nil
}
