package behavior

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/zeusync/liquid/internal/core/observability/log"
)

var DefaultRegistry = NewRegistry()

func init() {
	RegisterBuiltins(DefaultRegistry)
}

// RegisterBuiltins registers the blackboard-driven leaves and the stock
// decorators so trees can be described entirely in config.
func RegisterBuiltins(r Registry) {
	r.RegisterCondition("IsTrue", func(params map[string]any) (ConditionFunc, error) {
		key, _ := params["key"].(string)
		if key == "" {
			return nil, fmt.Errorf("IsTrue requires 'key'")
		}
		return func(tc *TickContext) bool {
			b, ok := tc.BB.GetBool(key)
			return ok && b
		}, nil
	})

	r.RegisterCondition("Expr", func(params map[string]any) (ConditionFunc, error) {
		code, _ := params["expr"].(string)
		if code == "" {
			return nil, fmt.Errorf("Expr requires 'expr'")
		}
		program, err := compileCondition(code)
		if err != nil {
			return nil, err
		}
		return exprCondition(code, program), nil
	})

	r.RegisterAction("Noop", func(map[string]any) (ActionHandler, error) {
		return ActionFunc(func(*TickContext) Result { return ResultSuccess }), nil
	})

	r.RegisterAction("SetValue", func(params map[string]any) (ActionHandler, error) {
		key, _ := params["key"].(string)
		if key == "" {
			return nil, fmt.Errorf("SetValue requires 'key'")
		}
		val := params["value"]
		return ActionFunc(func(tc *TickContext) Result {
			tc.BB.Set(key, val)
			return ResultSuccess
		}), nil
	})

	r.RegisterAction("Log", func(params map[string]any) (ActionHandler, error) {
		msg, _ := params["msg"].(string)
		key, _ := params["key"].(string)
		return ActionFunc(func(tc *TickContext) Result {
			fields := []log.Field{}
			if key != "" {
				v, _ := tc.BB.Get(key)
				fields = append(fields, log.Any(key, v))
			}
			tc.Log.Info(msg, fields...)
			return ResultSuccess
		}), nil
	})

	r.RegisterAction("Wait", func(params map[string]any) (ActionHandler, error) {
		d, err := DurationParam(params, "duration")
		if err != nil {
			return nil, err
		}
		return &waitHandler{duration: d}, nil
	})

	r.RegisterDecorator("Inverse", func(name string, _ map[string]any) (Decorator, error) {
		return NewInverse(name), nil
	})
	r.RegisterDecorator("ForceSuccess", func(name string, _ map[string]any) (Decorator, error) {
		return NewForceSuccess(name), nil
	})
	r.RegisterDecorator("ForceFailure", func(name string, _ map[string]any) (Decorator, error) {
		return NewForceFailure(name), nil
	})
	r.RegisterDecorator("Repeat", func(name string, params map[string]any) (Decorator, error) {
		return NewRepeat(name, IntParam(params, "times", 1)), nil
	})
	r.RegisterDecorator("RetryUntilSuccess", func(name string, params map[string]any) (Decorator, error) {
		return NewRetryUntilSuccess(name, IntParam(params, "attempts", 0)), nil
	})
	r.RegisterDecorator("RetryUntilFailure", func(name string, params map[string]any) (Decorator, error) {
		return NewRetryUntilFailure(name, IntParam(params, "attempts", 0)), nil
	})
}

func compileCondition(code string) (*vm.Program, error) {
	program, err := expr.Compile(code,
		expr.Env(map[string]any{}),
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", code, err)
	}
	return program, nil
}

// NewExprCondition builds a condition evaluating code against a snapshot of the
// blackboard. Evaluation errors count as false.
func NewExprCondition(name, code string) (*Condition, error) {
	program, err := compileCondition(code)
	if err != nil {
		return nil, err
	}
	return NewCondition(name, exprCondition(code, program)), nil
}

func exprCondition(code string, program *vm.Program) ConditionFunc {
	return func(tc *TickContext) bool {
		out, err := expr.Run(program, tc.BB.Snapshot())
		if err != nil {
			tc.Log.Debug("expression failed", log.String("expr", code), log.Error(err))
			return false
		}
		b, _ := out.(bool)
		return b
	}
}
