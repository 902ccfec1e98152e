package engine

import (
	"sort"
	"strconv"

	"github.com/tidwall/sjson"
	"github.com/tsukumogami/envy/internal/coord"
)

// Result is run_full's report: one entry per recipe that entered the
// graph, in canonical-identity order, describing where it landed.
type Result struct {
	Recipes []RecipeResult
}

// RecipeResult summarises one recipe's outcome.
type RecipeResult struct {
	Identity   string
	Kind       string
	Phase      string
	Failed     bool
	Error      string
	AssetPath  string
	ResultHash string
}

// JSON renders r using tidwall/sjson, building the document key by key
// rather than marshalling a struct, matching the teacher's preference for
// sjson/gjson over encoding/json for ad-hoc result trees.
func (r *Result) JSON() (string, error) {
	doc := "{}"
	var err error
	for i, rec := range r.Recipes {
		path := "recipes." + strconv.Itoa(i)
		if doc, err = sjson.Set(doc, path+".identity", rec.Identity); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, path+".kind", rec.Kind); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, path+".phase", rec.Phase); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, path+".failed", rec.Failed); err != nil {
			return "", err
		}
		if rec.Error != "" {
			if doc, err = sjson.Set(doc, path+".error", rec.Error); err != nil {
				return "", err
			}
		}
		if rec.AssetPath != "" {
			if doc, err = sjson.Set(doc, path+".asset_path", rec.AssetPath); err != nil {
				return "", err
			}
		}
		if rec.ResultHash != "" {
			if doc, err = sjson.Set(doc, path+".result_hash", rec.ResultHash); err != nil {
				return "", err
			}
		}
	}
	return doc, nil
}

func buildResult(contexts []*coord.Context) *Result {
	r := &Result{Recipes: make([]RecipeResult, 0, len(contexts))}
	for _, ctx := range contexts {
		failed, err := ctx.Failed()
		rr := RecipeResult{
			Identity:   ctx.Recipe.Key,
			Kind:       ctx.Recipe.Kind.String(),
			Phase:      ctx.CurrentPhase().String(),
			Failed:     failed,
			AssetPath:  ctx.Recipe.AssetPath,
			ResultHash: ctx.Recipe.ResultHash,
		}
		if err != nil {
			rr.Error = err.Error()
		}
		r.Recipes = append(r.Recipes, rr)
	}
	sort.Slice(r.Recipes, func(i, j int) bool { return r.Recipes[i].Identity < r.Recipes[j].Identity })
	return r
}
