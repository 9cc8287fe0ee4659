package script

import (
	"errors"
	"fmt"
	"iter"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

// newThread returns a thread bound to env for a single detect or fix call.
func newThread(name string, env *qa.Env) *starlark.Thread {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			env.Log().Info(msg)
		},
	}
	thread.SetLocal(envKey, env)
	return thread
}

// detectFunc adapts a Starlark callable returning node names. A callable
// taking one parameter receives the rule options as a dict.
func detectFunc(id string, fn starlark.Callable) qa.DetectFunc {
	return func(env *qa.Env) iter.Seq2[qa.Item, error] {
		return func(yield func(qa.Item, error) bool) {
			thread := newThread("detect:"+id, env)

			var args starlark.Tuple
			if f, ok := fn.(*starlark.Function); ok && f.NumParams() > 0 {
				opts, err := toStarlark(optionsMap(env.Options))
				if err != nil {
					yield("", fmt.Errorf("%s options: %w", id, err))
					return
				}
				args = starlark.Tuple{opts}
			}

			result, err := starlark.Call(thread, fn, args, nil)
			if err != nil {
				yield("", unwrapEval(err))
				return
			}
			seq, ok := result.(starlark.Iterable)
			if !ok {
				yield("", fmt.Errorf("%s: detect returned %s, want a list of names", id, result.Type()))
				return
			}

			it := seq.Iterate()
			defer it.Done()
			var v starlark.Value
			for it.Next(&v) {
				name, ok := starlark.AsString(v)
				if !ok {
					yield("", fmt.Errorf("%s: detect yielded %s, want string", id, v.Type()))
					return
				}
				if !yield(name, nil) {
					return
				}
			}
		}
	}
}

func fixFunc(id string, fn starlark.Callable) qa.FixFunc {
	return func(env *qa.Env, item qa.Item) error {
		thread := newThread("fix:"+id, env)
		_, err := starlark.Call(thread, fn, starlark.Tuple{starlark.String(item)}, nil)
		return unwrapEval(err)
	}
}

// unwrapEval keeps the Starlark backtrace in the message while exposing the
// Go error a builtin returned, so scene sentinels still match errors.Is.
func unwrapEval(err error) error {
	var ee *starlark.EvalError
	if !errors.As(err, &ee) {
		return err
	}
	if cause := ee.Unwrap(); cause != nil {
		return fmt.Errorf("%s: %w", ee.Backtrace(), cause)
	}
	return errors.New(ee.Backtrace())
}

func optionsMap(opts map[string]any) map[string]any {
	if opts == nil {
		return map[string]any{}
	}
	return opts
}
