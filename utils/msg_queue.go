package utils

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/pkg/errors"
)

// MessageQueueMessage is one message pulled off the queue.
type MessageQueueMessage struct {
	Message       *string
	MessageId     *string
	ReceivedTimes int
	SentTimeStamp int
	ReceiptHandle string
}

func (msg *MessageQueueMessage) Read() (string, error) {
	if msg.Message == nil {
		return "", errors.New("message has no body")
	}
	return *msg.Message, nil
}

// MessageQueueReader reads from a queue. Reader focuses on how to get
// messages from the queue; processors focus on how to process them.
type MessageQueueReader interface {
	ReceiveMessages(maxNumberOfMessages int64) ([]*MessageQueueMessage, error)
	DeleteMessage(msg *MessageQueueMessage) error
}

// MessageQueueWriter enqueues a message body.
type MessageQueueWriter interface {
	SendMessage(body string) error
}

type SQSMessageQueue struct {
	readTimeout int64
	queueName   string
	url         string
	client      *sqs.SQS
}

// NewSQSMessageQueue connects to a named SQS queue usable as both
// reader and writer. Credentials come from the shared AWS config.
func NewSQSMessageQueue(queueName string, readingTimeout int64) (*SQSMessageQueue, error) {
	if queueName == "" {
		return nil, errors.New("please specify queue name")
	}
	if readingTimeout < 0 || readingTimeout > 20 {
		return nil, errors.New("readingTimeout should be >= 0 and <= 20")
	}

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	client := sqs.New(sess)

	url, err := client.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: &queueName,
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == sqs.ErrCodeQueueDoesNotExist {
			return nil, errors.Errorf("unable to find queue %q", queueName)
		}
		return nil, errors.Wrapf(err, "unable to connect to queue %q", queueName)
	}

	return &SQSMessageQueue{
		queueName:   queueName,
		url:         *url.QueueUrl,
		readTimeout: readingTimeout,
		client:      client,
	}, nil
}

func (q *SQSMessageQueue) SendMessage(body string) error {
	_, err := q.client.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    &q.url,
		MessageBody: &body,
	})
	return errors.Wrapf(err, "unable to send to queue %q", q.queueName)
}

func (q *SQSMessageQueue) DeleteMessage(msg *MessageQueueMessage) error {
	_, err := q.client.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      &q.url,
		ReceiptHandle: &msg.ReceiptHandle,
	})
	return errors.Wrapf(err, "unable to delete from queue %q", q.queueName)
}

func (q *SQSMessageQueue) ReceiveMessages(maxNumberOfMessages int64) ([]*MessageQueueMessage, error) {
	if maxNumberOfMessages < 1 || maxNumberOfMessages > 10 {
		return nil, errors.New("maxNumberOfMessages should be >= 1 and <= 10")
	}

	result, err := q.client.ReceiveMessage(&sqs.ReceiveMessageInput{
		QueueUrl: &q.url,
		AttributeNames: aws.StringSlice([]string{
			"SentTimestamp",
			"ApproximateReceiveCount",
		}),
		MaxNumberOfMessages: aws.Int64(maxNumberOfMessages),
		MessageAttributeNames: aws.StringSlice([]string{
			"All",
		}),
		WaitTimeSeconds: &q.readTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read queue %q", q.queueName)
	}

	res := []*MessageQueueMessage{}
	for _, msg := range result.Messages {
		var count, sentTime int
		if val, ok := msg.Attributes["ApproximateReceiveCount"]; ok {
			count, _ = strconv.Atoi(*val)
		}
		if val, ok := msg.Attributes["SentTimestamp"]; ok {
			sentTime, _ = strconv.Atoi(*val)
		}

		res = append(res, &MessageQueueMessage{
			Message:       msg.Body,
			MessageId:     msg.MessageId,
			ReceivedTimes: count,
			SentTimeStamp: sentTime,
			ReceiptHandle: *msg.ReceiptHandle,
		})
	}
	return res, nil
}
