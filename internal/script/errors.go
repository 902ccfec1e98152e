package script

import "github.com/tsukumogami/envy/internal/errmsg"

func errTypeError(binding, want string) error {
	return &errmsg.ScriptError{Binding: binding, Message: "expected " + want}
}
