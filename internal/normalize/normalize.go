// Package normalize converts heterogeneous raw-document shapes into the
// canonical types.LegalDocumentTree, the way a single discriminated
// dispatch would: each shape is tried as a pure function of the input
// bytes, and the first one that matches wins. Duplicate ids are
// resolved with a numeric suffix rather than dropped.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
	"github.com/Hidde-Heijnen/know-your-rights/internal/validate"
	"gopkg.in/yaml.v3"
)

// rawMetadataKeys are the object keys shape (f) treats as document-level
// metadata rather than as a node id.
var rawMetadataKeys = map[string]bool{
	"metadata":         true,
	"title":            true,
	"version":          true,
	"source":           true,
	"generated_at":     true,
	"structure_discovery": true,
}

// idRemapper generates unique ids for colliding normalisation output and
// records each renamed id in remap. Nothing reads remap back: string child
// references in the flat shapes (e) and (f) are not rewritten, so a
// reference to a duplicated id resolves to the node that kept the
// unsuffixed id.
type idRemapper struct {
	used   map[string]bool
	remap  map[string]string // original requested id -> assigned id, only when changed
}

func newIDRemapper() *idRemapper {
	return &idRemapper{used: make(map[string]bool), remap: make(map[string]string)}
}

// assign returns a unique id for the requested one, suffixing "_2", "_3",
// … on collision (spec §4.1 duplicate-id policy). The original content is
// never dropped — it lives on under the suffixed id.
func (r *idRemapper) assign(requested string) string {
	if !r.used[requested] {
		r.used[requested] = true
		return requested
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", requested, n)
		if !r.used[candidate] {
			r.used[candidate] = true
			r.remap[requested] = candidate // last remap wins
			return candidate
		}
	}
}

// Normalise converts raw document bytes (JSON or YAML) into a validated
// canonical tree, trying each known input shape in turn. It is a pure
// function of its input.
func Normalise(raw []byte) (*types.LegalDocumentTree, error) {
	var doc any
	if looksLikeJSON(raw) {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, &types.MalformedDocumentError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
	} else {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, &types.MalformedDocumentError{Reason: fmt.Sprintf("invalid YAML: %v", err)}
		}
		doc = yamlToJSONCompatible(doc)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		arr, isArr := doc.([]any)
		if !isArr {
			return nil, &types.MalformedDocumentError{Reason: "top-level document is neither an object nor an array"}
		}
		tree, err := normaliseFlatArray(arr)
		if err != nil {
			return nil, err
		}
		return finish(tree)
	}

	tree, err := dispatch(obj)
	if err != nil {
		return nil, err
	}
	return finish(tree)
}

// dispatch tries shapes (a), (d), (b), (c) and (f), in that order, the
// way a discriminated union would, returning the first one that
// recognises the input's shape.
func dispatch(obj map[string]any) (*types.LegalDocumentTree, error) {
	if tree, ok := tryCanonical(obj); ok {
		return tree, nil
	}
	if tree, ok, err := tryAgentResults(obj); ok || err != nil {
		return tree, err
	}
	if tree, ok := trySingleRootRecursive(obj); ok {
		return tree, nil
	}
	if tree, ok := tryChapterSection(obj); ok {
		return tree, nil
	}
	return tryFlatObject(obj)
}

func finish(tree *types.LegalDocumentTree) (*types.LegalDocumentTree, error) {
	if tree == nil || len(tree.Nodes) == 0 {
		return nil, &types.MalformedDocumentError{Reason: "no recognised document shape produced any nodes"}
	}
	recomputeDepths(tree)
	if err := validate.Validate(tree); err != nil {
		return nil, &types.MalformedDocumentError{Reason: err.Error()}
	}
	return tree, nil
}

// shape (a): already canonical — has both "nodes" and "rootNodes".
func tryCanonical(obj map[string]any) (*types.LegalDocumentTree, bool) {
	nodesRaw, hasNodes := obj["nodes"]
	rootsRaw, hasRoots := obj["rootNodes"]
	if !hasNodes || !hasRoots {
		return nil, false
	}
	nodesObj, ok := nodesRaw.(map[string]any)
	if !ok {
		return nil, false
	}
	rootsArr, ok := rootsRaw.([]any)
	if !ok {
		return nil, false
	}

	tree := &types.LegalDocumentTree{Nodes: make(map[string]*types.LegalNode)}
	for id, v := range nodesObj {
		nodeObj, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		tree.Nodes[id] = nodeFromObject(id, nodeObj)
	}
	for _, r := range rootsArr {
		s, ok := r.(string)
		if !ok {
			return nil, false
		}
		tree.RootNodes = append(tree.RootNodes, s)
	}
	return tree, true
}

// shape (b): single-root recursive object with id/title/level/children as
// a mapping of child-id → child-object.
func trySingleRootRecursive(obj map[string]any) (*types.LegalDocumentTree, bool) {
	if _, ok := obj["id"]; !ok {
		return nil, false
	}
	childrenRaw, hasChildren := obj["children"]
	if hasChildren {
		if _, ok := childrenRaw.(map[string]any); !ok {
			return nil, false
		}
	}

	tree := &types.LegalDocumentTree{Nodes: make(map[string]*types.LegalNode)}
	rem := newIDRemapper()
	rootID, ok := flattenRecursive(obj, tree, rem)
	if !ok {
		return nil, false
	}
	tree.RootNodes = []string{rootID}
	return tree, true
}

func flattenRecursive(obj map[string]any, tree *types.LegalDocumentTree, rem *idRemapper) (string, bool) {
	rawID, ok := obj["id"].(string)
	if !ok || rawID == "" {
		return "", false
	}
	id := rem.assign(rawID)

	node := &types.LegalNode{
		ID:       id,
		Title:    stringField(obj, "title"),
		Content:  stringField(obj, "content"),
		Level:    intField(obj, "level"),
		Metadata: metadataFromObject(obj),
	}

	if childrenRaw, ok := obj["children"].(map[string]any); ok {
		keys := sortedKeys(childrenRaw)
		for _, k := range keys {
			childObj, ok := childrenRaw[k].(map[string]any)
			if !ok {
				continue
			}
			if _, hasID := childObj["id"]; !hasID {
				childObj = withID(childObj, k)
			}
			childID, ok := flattenRecursive(childObj, tree, rem)
			if !ok {
				continue
			}
			node.Children = append(node.Children, childID)
		}
	}

	tree.Nodes[id] = node
	return id, true
}

// shape (c): chapter/section nested object keyed by id, flattened with
// composed ids ("chapter_section_subsection").
func tryChapterSection(obj map[string]any) (*types.LegalDocumentTree, bool) {
	// Heuristic: every top-level value must itself be an object containing
	// a nested object-valued key (its own sections), and none carry a
	// top-level "id"/"children" field (which would mean shape (b)).
	if len(obj) == 0 {
		return nil, false
	}
	for _, v := range obj {
		vo, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if _, hasID := vo["id"]; hasID {
			return nil, false
		}
		if _, hasChildren := vo["children"]; hasChildren {
			return nil, false
		}
		hasSection := false
		for nk, nv := range vo {
			if _, isObj := nv.(map[string]any); isObj && !rawMetadataKeys[nk] {
				hasSection = true
				break
			}
		}
		if !hasSection {
			return nil, false
		}
	}

	tree := &types.LegalDocumentTree{Nodes: make(map[string]*types.LegalNode)}
	rem := newIDRemapper()
	keys := sortedKeys(obj)
	for _, k := range keys {
		chapterObj, ok := obj[k].(map[string]any)
		if !ok {
			continue
		}
		chapterID, ok := flattenComposed(k, chapterObj, "", tree, rem)
		if !ok {
			continue
		}
		tree.RootNodes = append(tree.RootNodes, chapterID)
	}
	if len(tree.RootNodes) == 0 {
		return nil, false
	}
	return tree, true
}

func flattenComposed(key string, obj map[string]any, prefix string, tree *types.LegalDocumentTree, rem *idRemapper) (string, bool) {
	composed := key
	if prefix != "" {
		composed = prefix + "_" + key
	}
	id := rem.assign(composed)

	node := &types.LegalNode{
		ID:       id,
		Title:    stringField(obj, "title"),
		Content:  stringField(obj, "content"),
		Metadata: metadataFromObject(obj),
	}

	nestedKeys := sortedKeys(obj)
	for _, nk := range nestedKeys {
		if rawMetadataKeys[nk] || nk == "title" || nk == "content" {
			continue
		}
		nested, ok := obj[nk].(map[string]any)
		if !ok {
			continue
		}
		childID, ok := flattenComposed(nk, nested, id, tree, rem)
		if !ok {
			continue
		}
		node.Children = append(node.Children, childID)
	}

	tree.Nodes[id] = node
	return id, true
}

// shape (d): agent-results object with a deeply nested
// structure_discovery.structure_analysis.document_structure.root_sections
// array.
func tryAgentResults(obj map[string]any) (*types.LegalDocumentTree, bool, error) {
	sections, ok := digPath(obj, "structure_discovery", "structure_analysis", "document_structure", "root_sections")
	if !ok {
		return nil, false, nil
	}
	arr, ok := sections.([]any)
	if !ok {
		return nil, true, &types.MalformedDocumentError{Reason: "root_sections is not an array"}
	}

	tree := &types.LegalDocumentTree{Nodes: make(map[string]*types.LegalNode)}
	rem := newIDRemapper()
	for _, s := range arr {
		sObj, ok := s.(map[string]any)
		if !ok {
			continue
		}
		id, ok := walkAgentSection(sObj, tree, rem)
		if !ok {
			continue
		}
		tree.RootNodes = append(tree.RootNodes, id)
	}
	if len(tree.RootNodes) == 0 {
		return nil, true, &types.MalformedDocumentError{Reason: "root_sections produced no nodes"}
	}
	return tree, true, nil
}

func walkAgentSection(obj map[string]any, tree *types.LegalDocumentTree, rem *idRemapper) (string, bool) {
	rawID := stringField(obj, "id")
	if rawID == "" {
		rawID = stringField(obj, "section_number")
	}
	if rawID == "" {
		return "", false
	}
	id := rem.assign(rawID)

	node := &types.LegalNode{
		ID:       id,
		Title:    stringField(obj, "title"),
		Content:  stringField(obj, "content"),
		Metadata: metadataFromObject(obj),
	}

	childrenKey := "subsections"
	if _, ok := obj["children"]; ok {
		childrenKey = "children"
	}
	if childrenRaw, ok := obj[childrenKey].([]any); ok {
		for _, c := range childrenRaw {
			cObj, ok := c.(map[string]any)
			if !ok {
				continue
			}
			childID, ok := walkAgentSection(cObj, tree, rem)
			if !ok {
				continue
			}
			node.Children = append(node.Children, childID)
		}
	}

	tree.Nodes[id] = node
	return id, true
}

// shape (e): flat array of node-like objects; nodes with level==0 or a
// missing parent become roots.
func normaliseFlatArray(arr []any) (*types.LegalDocumentTree, error) {
	tree := &types.LegalDocumentTree{Nodes: make(map[string]*types.LegalNode)}
	rem := newIDRemapper()
	childOf := make(map[string]string) // child id -> parent id, for root inference

	type pending struct {
		id     string
		obj    map[string]any
	}
	var items []pending

	for i, v := range arr {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		rawID := stringField(obj, "id")
		if rawID == "" {
			rawID = fmt.Sprintf("node_%d", i)
		}
		id := rem.assign(rawID)
		items = append(items, pending{id: id, obj: obj})

		node := &types.LegalNode{
			ID:       id,
			Title:    stringField(obj, "title"),
			Content:  stringField(obj, "content"),
			Level:    intField(obj, "level"),
			Metadata: metadataFromObject(obj),
		}
		if childrenRaw, ok := obj["children"].([]any); ok {
			for _, c := range childrenRaw {
				if s, ok := c.(string); ok {
					node.Children = append(node.Children, s)
				}
			}
		}
		tree.Nodes[id] = node
	}
	if len(tree.Nodes) == 0 {
		return nil, &types.MalformedDocumentError{Reason: "flat array contained no node objects"}
	}

	for _, n := range tree.Nodes {
		for _, c := range n.Children {
			childOf[c] = n.ID
		}
	}

	for _, it := range items {
		_, hasParent := childOf[it.id]
		levelZero := intField(it.obj, "level") == 0
		_, hasParentField := it.obj["parent"]
		if levelZero || (!hasParent && !hasParentField) {
			tree.RootNodes = append(tree.RootNodes, it.id)
		}
	}
	if len(tree.RootNodes) == 0 {
		// No explicit roots found; fall back to nodes nothing points at.
		for _, it := range items {
			if _, hasParent := childOf[it.id]; !hasParent {
				tree.RootNodes = append(tree.RootNodes, it.id)
			}
		}
	}
	return tree, nil
}

// shape (f): flat object keyed by id, skipping known metadata keys.
func tryFlatObject(obj map[string]any) (*types.LegalDocumentTree, error) {
	tree := &types.LegalDocumentTree{Nodes: make(map[string]*types.LegalNode)}
	rem := newIDRemapper()
	childOf := make(map[string]string)

	keys := sortedKeys(obj)
	var order []string
	for _, k := range keys {
		if rawMetadataKeys[k] {
			continue
		}
		nodeObj, ok := obj[k].(map[string]any)
		if !ok {
			continue
		}
		id := rem.assign(k)
		order = append(order, id)

		node := &types.LegalNode{
			ID:       id,
			Title:    stringField(nodeObj, "title"),
			Content:  stringField(nodeObj, "content"),
			Level:    intField(nodeObj, "level"),
			Metadata: metadataFromObject(nodeObj),
		}
		if childrenRaw, ok := nodeObj["children"].([]any); ok {
			for _, c := range childrenRaw {
				if s, ok := c.(string); ok {
					node.Children = append(node.Children, s)
				}
			}
		}
		tree.Nodes[id] = node
	}
	if len(tree.Nodes) == 0 {
		return nil, &types.MalformedDocumentError{Reason: "no shape matched the input document"}
	}

	for _, n := range tree.Nodes {
		for _, c := range n.Children {
			childOf[c] = n.ID
		}
	}
	for _, id := range order {
		if _, hasParent := childOf[id]; !hasParent {
			tree.RootNodes = append(tree.RootNodes, id)
		}
	}
	if len(tree.RootNodes) == 0 {
		tree.RootNodes = order
	}
	return tree, nil
}

// recomputeDepths enforces I4 by a top-down BFS from the roots: the
// traversal-computed depth always wins over whatever "level" field was
// present on the raw input.
func recomputeDepths(tree *types.LegalDocumentTree) {
	type item struct {
		id    string
		depth int
	}
	queue := make([]item, 0, len(tree.RootNodes))
	for _, r := range tree.RootNodes {
		queue = append(queue, item{id: r, depth: 0})
	}
	seen := make(map[string]bool)
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if seen[it.id] {
			continue
		}
		seen[it.id] = true
		n, ok := tree.Nodes[it.id]
		if !ok {
			continue
		}
		n.Level = it.depth
		for _, c := range n.Children {
			queue = append(queue, item{id: c, depth: it.depth + 1})
		}
	}
}

// --- small shared helpers ---

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func intField(obj map[string]any, key string) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func withID(obj map[string]any, id string) map[string]any {
	out := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}
	out["id"] = id
	return out
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func digPath(obj map[string]any, path ...string) (any, bool) {
	cur := any(obj)
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func metadataFromObject(obj map[string]any) *types.NodeMetadata {
	raw, ok := obj["metadata"].(map[string]any)
	if !ok {
		return nil
	}
	md := &types.NodeMetadata{
		Scope:           stringField(raw, "scope"),
		PracticalImpact: stringField(raw, "practical_impact"),
		SectionNumber:   stringField(raw, "section_number"),
		SectionType:     stringField(raw, "section_type"),
	}
	md.Keywords = stringSliceField(raw, "keywords")
	md.MainThemes = stringSliceField(raw, "main_themes")
	md.KeyPoints = stringSliceField(raw, "key_points")
	md.LegalReferences = stringSliceField(raw, "legal_references")
	return md
}

func stringSliceField(obj map[string]any, key string) []string {
	arr, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nodeFromObject(id string, obj map[string]any) *types.LegalNode {
	node := &types.LegalNode{
		ID:       id,
		Title:    stringField(obj, "title"),
		Content:  stringField(obj, "content"),
		Level:    intField(obj, "level"),
		Metadata: metadataFromObject(obj),
	}
	if childrenRaw, ok := obj["children"].([]any); ok {
		for _, c := range childrenRaw {
			if s, ok := c.(string); ok {
				node.Children = append(node.Children, s)
			}
		}
	}
	return node
}

func looksLikeJSON(raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// yamlToJSONCompatible converts map[string]interface{} keyed maps that
// gopkg.in/yaml.v3 may produce as map[string]interface{} already (v3
// decodes mapping nodes into map[string]interface{} when the target is
// `any`), but normalises any stray map[any]any some custom decoders might
// still hand back.
func yamlToJSONCompatible(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = yamlToJSONCompatible(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[fmt.Sprint(k)] = yamlToJSONCompatible(val)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = yamlToJSONCompatible(val)
		}
		return out
	default:
		return v
	}
}
