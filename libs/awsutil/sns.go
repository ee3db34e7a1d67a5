package awsutil

import (
	"encoding/base64"
	"encoding/json"
	"time"
	"unicode/utf8"
)

// SNSSQSMessage is the format of the message on an SQS queue
// when it subscribes to an SNS topic.
type SNSSQSMessage struct {
	Type             string
	MessageID        string `json:"MessageId"`
	TopicArn         string
	Subject          string
	Message          string
	Timestamp        time.Time
	SignatureVersion string
	Signature        string
	SigningCertURL   string
	UnsubscribeURL   string
}

// UnwrapSNS returns the inner message when body is an SNS notification delivered through SQS,
// and body unchanged otherwise. Base64 encoded inner messages are decoded.
func UnwrapSNS(body []byte) []byte {
	var m SNSSQSMessage
	if err := json.Unmarshal(body, &m); err != nil || m.Type != "Notification" || m.Message == "" {
		return body
	}
	if len(m.Message) > 0 && (m.Message[0] == '{' || m.Message[0] == '[') {
		return []byte(m.Message)
	}
	if data, err := base64.StdEncoding.DecodeString(m.Message); err == nil && utf8.Valid(data) {
		return data
	}
	return []byte(m.Message)
}
