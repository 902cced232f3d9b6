package interpreterpb

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ErrorDomain is the errdetails domain used for interpreter exceptions.
const ErrorDomain = "faceauth.interpreter"

// NewCallRequest encodes a call. Argument order is preserved.
func NewCallRequest(module, function string, args []string) (*structpb.Struct, error) {
	list := make([]interface{}, len(args))
	for i, arg := range args {
		list[i] = arg
	}
	return structpb.NewStruct(map[string]interface{}{
		"module":   module,
		"function": function,
		"args":     list,
	})
}

// ParseCallRequest decodes a call built by NewCallRequest.
func ParseCallRequest(req *structpb.Struct) (module, function string, args []string, err error) {
	fields := req.GetFields()
	module = fields["module"].GetStringValue()
	function = fields["function"].GetStringValue()
	if module == "" || function == "" {
		return "", "", nil, errors.New("module and function are required")
	}

	list := fields["args"].GetListValue()
	args = make([]string, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", "", nil, fmt.Errorf("argument %d is not a string", i)
		}
		args = append(args, s.StringValue)
	}
	return module, function, args, nil
}
