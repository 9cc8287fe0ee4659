package script

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// Thread-local keys.
const (
	declsKey = "sceneqa.decls"
	envKey   = "sceneqa.env"
)

var fileOptions = &syntax.FileOptions{
	Set:   true,
	While: true,
}

func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"rule":  starlark.NewBuiltin("rule", ruleBuiltin),
		"scene": sceneModule,
	}
}

// ruleBuiltin records a rule declaration on the loading thread.
func ruleBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	decls, ok := thread.Local(declsKey).(*[]qa.RuleDef)
	if !ok {
		return nil, fmt.Errorf("%s: only callable while loading a rule file", b.Name())
	}

	var (
		id, name, message, description string
		categories                      *starlark.List
		urgency                         starlark.Value = starlark.String("error")
		selectable                                     = true
		detect                          starlark.Callable
		fix                             starlark.Callable
		configKeys                      *starlark.List
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"id", &id,
		"name", &name,
		"message", &message,
		"categories", &categories,
		"detect", &detect,
		"fix?", &fix,
		"urgency?", &urgency,
		"selectable?", &selectable,
		"description?", &description,
		"options?", &configKeys,
	); err != nil {
		return nil, err
	}

	cats, err := stringList(categories)
	if err != nil {
		return nil, fmt.Errorf("%s: categories: %w", b.Name(), err)
	}
	keys, err := stringList(configKeys)
	if err != nil {
		return nil, fmt.Errorf("%s: options: %w", b.Name(), err)
	}
	level, err := parseUrgency(urgency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	def := qa.RuleDef{
		ID:          id,
		Name:        name,
		Urgency:     level,
		Message:     message,
		Categories:  cats,
		Selectable:  selectable,
		Description: description,
		ConfigKeys:  keys,
		Detect:      detectFunc(id, detect),
	}
	if fix != nil {
		def.Fix = fixFunc(id, fix)
	}
	*decls = append(*decls, def)
	return starlark.None, nil
}

func parseUrgency(v starlark.Value) (qa.Urgency, error) {
	var raw string
	switch u := v.(type) {
	case starlark.String:
		raw = string(u)
	case starlark.Int:
		raw = u.String()
	default:
		return qa.UrgencyNone, fmt.Errorf("urgency must be a string or int, got %s", v.Type())
	}
	level, ok := qa.ParseUrgency(raw)
	if !ok || level == qa.UrgencyNone {
		return qa.UrgencyNone, fmt.Errorf("invalid urgency %q", raw)
	}
	return level, nil
}

func stringList(l *starlark.List) ([]string, error) {
	if l == nil {
		return nil, nil
	}
	out := make([]string, 0, l.Len())
	for i := range l.Len() {
		s, ok := starlark.AsString(l.Index(i))
		if !ok {
			return nil, fmt.Errorf("element %d is %s, want string", i, l.Index(i).Type())
		}
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// scene module
// =============================================================================

var sceneModule = &starlarkstruct.Module{
	Name: "scene",
	Members: starlark.StringDict{
		"ls":            starlark.NewBuiltin("scene.ls", sceneLs),
		"connections":   starlark.NewBuiltin("scene.connections", sceneConnections),
		"is_referenced": starlark.NewBuiltin("scene.is_referenced", sceneIsReferenced),
		"exists":        starlark.NewBuiltin("scene.exists", sceneExists),
		"node_type":     starlark.NewBuiltin("scene.node_type", sceneNodeType),
		"get_attr":      starlark.NewBuiltin("scene.get_attr", sceneGetAttr),
		"set_attr":      starlark.NewBuiltin("scene.set_attr", sceneSetAttr),
		"delete":        starlark.NewBuiltin("scene.delete", sceneDelete),
		"rename":        starlark.NewBuiltin("scene.rename", sceneRename),
		"members":       starlark.NewBuiltin("scene.members", sceneMembers),
	},
}

func envOf(thread *starlark.Thread, b *starlark.Builtin) (*qa.Env, error) {
	env, ok := thread.Local(envKey).(*qa.Env)
	if !ok || env == nil || env.Scene == nil {
		return nil, fmt.Errorf("%s: no scene is bound outside detect or fix", b.Name())
	}
	return env, nil
}

func sceneLs(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, err := envOf(thread, b)
	if err != nil {
		return nil, err
	}
	var (
		types    starlark.Value = starlark.None
		selected bool
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "types?", &types, "selected?", &selected); err != nil {
		return nil, err
	}
	q := scene.Query{Long: true, Selected: selected}
	switch t := types.(type) {
	case starlark.NoneType:
	case starlark.String:
		q.Types = []string{string(t)}
	case *starlark.List:
		if q.Types, err = stringList(t); err != nil {
			return nil, fmt.Errorf("%s: types: %w", b.Name(), err)
		}
	default:
		return nil, fmt.Errorf("%s: types must be a string or list, got %s", b.Name(), types.Type())
	}
	nodes, err := env.List(q)
	if err != nil {
		return nil, err
	}
	return toStarlarkList(nodes), nil
}

func sceneConnections(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, err := envOf(thread, b)
	if err != nil {
		return nil, err
	}
	var (
		plug string
		q    scene.ConnQuery
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"plug", &plug,
		"source?", &q.Source,
		"destination?", &q.Destination,
		"plugs?", &q.Plugs,
		"type?", &q.Type,
	); err != nil {
		return nil, err
	}
	conns, err := env.Scene.Connections(plug, q)
	if err != nil {
		return nil, err
	}
	return toStarlarkList(conns), nil
}

func sceneIsReferenced(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, node, err := unpackNode(thread, b, args, kwargs)
	if err != nil {
		return nil, err
	}
	ref, err := env.Scene.IsReferenced(node)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(ref), nil
}

func sceneExists(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, node, err := unpackNode(thread, b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(env.Scene.Exists(node)), nil
}

func sceneNodeType(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, node, err := unpackNode(thread, b, args, kwargs)
	if err != nil {
		return nil, err
	}
	typ, err := env.Scene.NodeType(node)
	if err != nil {
		return nil, err
	}
	return starlark.String(typ), nil
}

func sceneGetAttr(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, plug, err := unpackNode(thread, b, args, kwargs)
	if err != nil {
		return nil, err
	}
	v, err := env.Scene.GetAttr(plug)
	if err != nil {
		return nil, err
	}
	return toStarlark(v)
}

func sceneSetAttr(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, err := envOf(thread, b)
	if err != nil {
		return nil, err
	}
	var (
		plug  string
		value starlark.Value
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "plug", &plug, "value", &value); err != nil {
		return nil, err
	}
	v, err := fromStarlark(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.None, env.Scene.SetAttr(plug, v)
}

func sceneDelete(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, node, err := unpackNode(thread, b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return starlark.None, qa.DeleteNode(env, node)
}

func sceneRename(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, err := envOf(thread, b)
	if err != nil {
		return nil, err
	}
	var node, newName string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "node", &node, "new_name", &newName); err != nil {
		return nil, err
	}
	renamed, err := env.Scene.Rename(node, newName)
	if err != nil {
		return nil, err
	}
	return starlark.String(renamed), nil
}

func sceneMembers(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	env, set, err := unpackNode(thread, b, args, kwargs)
	if err != nil {
		return nil, err
	}
	members, err := env.Scene.Members(set)
	if err != nil {
		return nil, err
	}
	return toStarlarkList(members), nil
}

// unpackNode handles the builtins taking a single node or plug name.
func unpackNode(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (*qa.Env, string, error) {
	env, err := envOf(thread, b)
	if err != nil {
		return nil, "", err
	}
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, "", err
	}
	return env, name, nil
}
