// Package cloudwatch provides the AWS::CloudWatch resource types used by the stack.
package cloudwatch

// Alarm is an AWS::CloudWatch::Alarm.
type Alarm struct {
	AlarmName          any               `json:"AlarmName,omitempty"`
	AlarmDescription   string            `json:"AlarmDescription,omitempty"`
	Namespace          string            `json:"Namespace"`
	MetricName         string            `json:"MetricName"`
	Dimensions         []Alarm_Dimension `json:"Dimensions,omitempty"`
	Statistic          string            `json:"Statistic,omitempty"`
	Period             int               `json:"Period,omitempty"`
	EvaluationPeriods  int               `json:"EvaluationPeriods"`
	Threshold          float64           `json:"Threshold"`
	ComparisonOperator string            `json:"ComparisonOperator"`
	TreatMissingData   string            `json:"TreatMissingData,omitempty"`
	AlarmActions       []any             `json:"AlarmActions,omitempty"`
	OKActions          []any             `json:"OKActions,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Alarm) ResourceType() string { return "AWS::CloudWatch::Alarm" }

// Alarm_Dimension narrows the metric to one resource.
type Alarm_Dimension struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// GreaterThanOrEqualToThreshold is the comparison used by depth alarms.
const GreaterThanOrEqualToThreshold = "GreaterThanOrEqualToThreshold"
