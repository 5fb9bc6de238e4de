package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Objectives with an identity link, i.e. the margin is the prediction.
const (
	ObjectiveSquaredError  = "reg:squarederror"
	ObjectiveLinear        = "reg:linear"
	ObjectiveAbsoluteError = "reg:absoluteerror"
	ObjectivePseudoHuber   = "reg:pseudohubererror"
)

const (
	boosterGBTree = "gbtree"

	// artifactMajorVersion is the XGBoost release line Encode claims.
	artifactMajorVersion = 2
)

func supportedObjective(name string) bool {
	switch name {
	case ObjectiveSquaredError, ObjectiveLinear, ObjectiveAbsoluteError, ObjectivePseudoHuber:
		return true
	}
	return false
}

// XGBoost JSON model document, as written by Booster.save_model("model.json").
// Only the fields needed for inference are mapped.

type xgbDocument struct {
	Learner xgbLearner `json:"learner"`
	Version []int      `json:"version,omitempty"`
}

type xgbLearner struct {
	FeatureNames      []string           `json:"feature_names,omitempty"`
	FeatureTypes      []string           `json:"feature_types,omitempty"`
	GradientBooster   xgbGradientBooster `json:"gradient_booster"`
	LearnerModelParam xgbLearnerParam    `json:"learner_model_param"`
	Objective         xgbObjective       `json:"objective"`
}

type xgbGradientBooster struct {
	Name  string       `json:"name"`
	Model xgbTreeModel `json:"model"`
}

type xgbTreeModel struct {
	Param    xgbTreeModelParam `json:"gbtree_model_param"`
	Trees    []xgbTree         `json:"trees"`
	TreeInfo []int             `json:"tree_info"`
}

type xgbTreeModelParam struct {
	NumTrees string `json:"num_trees"`
}

type xgbLearnerParam struct {
	BaseScore  string `json:"base_score"`
	NumClass   string `json:"num_class,omitempty"`
	NumFeature string `json:"num_feature"`
	NumTarget  string `json:"num_target,omitempty"`
}

type xgbObjective struct {
	Name string `json:"name"`
}

type xgbTree struct {
	ID              int        `json:"id"`
	LeftChildren    []int      `json:"left_children"`
	RightChildren   []int      `json:"right_children"`
	SplitIndices    []int      `json:"split_indices"`
	SplitConditions []float32  `json:"split_conditions"`
	SplitType       []int      `json:"split_type"`
	DefaultLeft     []flexBool `json:"default_left"`
	BaseWeights     []float32  `json:"base_weights,omitempty"`

	Categories      []int `json:"categories"`
	CategoriesNodes []int `json:"categories_nodes"`
}

// splitNumerical is the split_type of a plain threshold split. Any other
// value is a categorical partition.
const splitNumerical = 0

// flexBool accepts both JSON booleans and 0/1 integers; XGBoost releases
// differ in how they write default_left.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", "1":
		*b = true
	case "false", "0":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// Decode reads an XGBoost JSON model and builds a Booster.
func Decode(r io.Reader) (*Booster, error) {
	var doc xgbDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model json: %w", err)
	}
	return doc.booster()
}

// DecodeBytes is Decode over an in-memory artifact.
func DecodeBytes(data []byte) (*Booster, error) {
	return Decode(bytes.NewReader(data))
}

func (d *xgbDocument) booster() (*Booster, error) {
	l := d.Learner
	if name := l.GradientBooster.Name; name != boosterGBTree {
		return nil, fmt.Errorf("unsupported booster %q, want %q", name, boosterGBTree)
	}
	if n, err := parseParamInt(l.LearnerModelParam.NumTarget); err != nil || n > 1 {
		return nil, fmt.Errorf("multi-target models are not supported (num_target=%q)", l.LearnerModelParam.NumTarget)
	}
	if n, err := parseParamInt(l.LearnerModelParam.NumClass); err != nil || n > 1 {
		return nil, fmt.Errorf("classification models are not supported (num_class=%q)", l.LearnerModelParam.NumClass)
	}

	numFeature, err := parseParamInt(l.LearnerModelParam.NumFeature)
	if err != nil {
		return nil, fmt.Errorf("num_feature: %w", err)
	}
	baseScore, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, fmt.Errorf("base_score: %w", err)
	}

	trees := make([]Tree, len(l.GradientBooster.Model.Trees))
	for i, t := range l.GradientBooster.Model.Trees {
		tree, err := t.tree()
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = tree
	}

	return NewBooster(BoosterParams{
		Objective:    l.Objective.Name,
		BaseScore:    baseScore,
		NumFeature:   numFeature,
		FeatureNames: l.FeatureNames,
		Trees:        trees,
	})
}

func (t xgbTree) tree() (Tree, error) {
	n := len(t.LeftChildren)
	if len(t.RightChildren) != n || len(t.SplitIndices) != n ||
		len(t.SplitConditions) != n || len(t.DefaultLeft) != n {
		return Tree{}, fmt.Errorf("node arrays disagree in length: left=%d right=%d split_indices=%d split_conditions=%d default_left=%d",
			n, len(t.RightChildren), len(t.SplitIndices), len(t.SplitConditions), len(t.DefaultLeft))
	}
	if len(t.SplitType) != 0 && len(t.SplitType) != n {
		return Tree{}, fmt.Errorf("node arrays disagree in length: left=%d split_type=%d", n, len(t.SplitType))
	}
	for i, st := range t.SplitType {
		if st != splitNumerical {
			return Tree{}, fmt.Errorf("node %d: categorical splits are not supported (split_type=%d)", i, st)
		}
	}
	if len(t.Categories) > 0 || len(t.CategoriesNodes) > 0 {
		return Tree{}, fmt.Errorf("categorical splits are not supported (%d categorical nodes)", len(t.CategoriesNodes))
	}

	nodes := make([]Node, n)
	for i := range n {
		node := Node{
			Left:        t.LeftChildren[i],
			Right:       t.RightChildren[i],
			Feature:     t.SplitIndices[i],
			DefaultLeft: bool(t.DefaultLeft[i]),
		}
		// A leaf stores its value in split_conditions.
		if node.IsLeaf() {
			node.Value = t.SplitConditions[i]
		} else {
			node.Threshold = t.SplitConditions[i]
		}
		nodes[i] = node
	}
	return Tree{Nodes: nodes}, nil
}

// Encode writes b in the XGBoost JSON model layout that Decode reads.
func Encode(w io.Writer, b *Booster) error {
	doc := xgbDocument{
		Version: []int{artifactMajorVersion, 0, 0},
		Learner: xgbLearner{
			FeatureNames: b.FeatureNames(),
			GradientBooster: xgbGradientBooster{
				Name: boosterGBTree,
				Model: xgbTreeModel{
					Param:    xgbTreeModelParam{NumTrees: strconv.Itoa(len(b.trees))},
					Trees:    make([]xgbTree, len(b.trees)),
					TreeInfo: make([]int, len(b.trees)),
				},
			},
			LearnerModelParam: xgbLearnerParam{
				BaseScore:  strconv.FormatFloat(float64(b.baseScore), 'E', -1, 32),
				NumClass:   "0",
				NumFeature: strconv.Itoa(b.numFeature),
				NumTarget:  "1",
			},
			Objective: xgbObjective{Name: b.objective},
		},
	}
	if len(doc.Learner.FeatureNames) > 0 {
		doc.Learner.FeatureTypes = make([]string, len(doc.Learner.FeatureNames))
		for i := range doc.Learner.FeatureTypes {
			doc.Learner.FeatureTypes[i] = "float"
		}
	}
	for i, t := range b.trees {
		doc.Learner.GradientBooster.Model.Trees[i] = encodeTree(i, t)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func encodeTree(id int, t Tree) xgbTree {
	n := len(t.Nodes)
	out := xgbTree{
		ID:              id,
		LeftChildren:    make([]int, n),
		RightChildren:   make([]int, n),
		SplitIndices:    make([]int, n),
		SplitConditions: make([]float32, n),
		SplitType:       make([]int, n),
		DefaultLeft:     make([]flexBool, n),
		BaseWeights:     make([]float32, n),
		Categories:      []int{},
		CategoriesNodes: []int{},
	}
	for i, node := range t.Nodes {
		out.LeftChildren[i] = node.Left
		out.RightChildren[i] = node.Right
		out.SplitIndices[i] = node.Feature
		out.DefaultLeft[i] = flexBool(node.DefaultLeft)
		if node.IsLeaf() {
			out.RightChildren[i] = -1
			out.SplitConditions[i] = node.Value
			out.BaseWeights[i] = node.Value
		} else {
			out.SplitConditions[i] = node.Threshold
		}
	}
	return out
}

// parseParamInt reads XGBoost's string-encoded integer params. Empty means zero.
func parseParamInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// parseBaseScore reads "5E-1" as well as the bracketed "[5E-1]" form newer
// releases write for vector-valued intercepts.
func parseBaseScore(s string) (float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ",") {
		return 0, fmt.Errorf("vector intercept %q is not supported", s)
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}
