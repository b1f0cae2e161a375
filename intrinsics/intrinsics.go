// Package intrinsics provides CloudFormation intrinsic functions, IAM policy
// documents and ARN helpers used when synthesizing the stacks.
//
// The core intrinsic types are re-exported from cloudformation-schema-go:
//
//	Ref{"MyQueue"} → {"Ref": "MyQueue"}
//	GetAtt{"MyRole", "Arn"} → {"Fn::GetAtt": ["MyRole", "Arn"]}
//	Sub{"${AWS::Region}-bucket"} → {"Fn::Sub": "${AWS::Region}-bucket"}
package intrinsics

import (
	"encoding/json"
	"strings"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap is Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join
)

// IsIntrinsic reports whether v renders as a CloudFormation intrinsic rather
// than a literal.
func IsIntrinsic(v any) bool {
	switch t := v.(type) {
	case Ref, GetAtt, Sub, SubWithMap, Join, *Ref, *GetAtt, *Sub, *SubWithMap, *Join:
		return true
	case json.Marshaler:
		data, err := t.MarshalJSON()
		if err != nil {
			return false
		}
		var m map[string]json.RawMessage
		if json.Unmarshal(data, &m) != nil || len(m) != 1 {
			return false
		}
		_, isRef := m["Ref"]
		return isRef || hasFnKey(m)
	}
	return false
}

func hasFnKey(m map[string]json.RawMessage) bool {
	for k := range m {
		if strings.HasPrefix(k, "Fn::") {
			return true
		}
	}
	return false
}

// Arn returns the Arn attribute of a resource.
func Arn(logicalID string) GetAtt {
	return GetAtt{LogicalName: logicalID, Attribute: "Arn"}
}
