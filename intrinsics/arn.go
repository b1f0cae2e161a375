package intrinsics

import (
	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

// Pseudo-parameter placeholders inside Fn::Sub strings.
const (
	SubPartition = "${AWS::Partition}"
	SubRegion    = "${AWS::Region}"
	SubAccountID = "${AWS::AccountId}"
)

// StackARN returns an Fn::Sub that resolves to the ARN of a resource owned by
// the deploying account and region.
//
//	StackARN("ssm", "parameter/orcabus/*")
//	→ {"Fn::Sub": "arn:${AWS::Partition}:ssm:${AWS::Region}:${AWS::AccountId}:parameter/orcabus/*"}
func StackARN(service, resource string) Sub {
	return Sub{String: StackARNString(service, resource)}
}

// StackARNString is the Fn::Sub template behind StackARN.
func StackARNString(service, resource string) string {
	return arn.ARN{
		Partition: SubPartition,
		Service:   service,
		Region:    SubRegion,
		AccountID: SubAccountID,
		Resource:  resource,
	}.String()
}

// AccountRoot returns the root principal ARN of another account.
func AccountRoot(accountID string) Sub {
	return Sub{String: arn.ARN{
		Partition: SubPartition,
		Service:   "iam",
		AccountID: accountID,
		Resource:  "root",
	}.String()}
}
