package qa

// DeleteNode is a FixFunc that deletes the item. An item that no longer
// exists is already resolved.
func DeleteNode(env *Env, item Item) error {
	if !env.Scene.Exists(item) {
		return nil
	}
	return env.Scene.Delete(item)
}

// Unreferenced is a detector source listing unreferenced nodes of types.
func (e *Env) Unreferenced(types ...string) func() ([]string, error) {
	return func() ([]string, error) {
		return e.ListUnreferenced(types...)
	}
}
