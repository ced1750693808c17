package searchsync

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/curately/goodreads/store"
	"github.com/curately/goodreads/utils"
	Logger "github.com/curately/goodreads/utils/log"
)

// RefreshMessage is the queue payload requesting an incremental index
// refresh for one post.
type RefreshMessage struct {
	PostId string `json:"postId"`
}

// QueueRefresher enqueues refresh requests. It implements the vote
// ledger's IndexRefresher and is also used by the post write paths.
type QueueRefresher struct {
	writer utils.MessageQueueWriter
}

func NewQueueRefresher(writer utils.MessageQueueWriter) *QueueRefresher {
	return &QueueRefresher{writer: writer}
}

func (r *QueueRefresher) RequestRefresh(ctx context.Context, postId string) error {
	payload, err := json.Marshal(RefreshMessage{PostId: postId})
	if err != nil {
		return errors.Wrap(err, "fail to encode refresh message")
	}
	return errors.Wrap(r.writer.SendMessage(string(payload)), "fail to enqueue refresh message")
}

// RefreshConsumer drains refresh requests and applies them to the index
// snapshot one post at a time.
type RefreshConsumer struct {
	Reader utils.MessageQueueReader
	posts  store.PostStore
	index  *Index
}

func NewRefreshConsumer(reader utils.MessageQueueReader, posts store.PostStore, index *Index) *RefreshConsumer {
	return &RefreshConsumer{Reader: reader, posts: posts, index: index}
}

// ReadAndProcessMessages reads up to batchSize queued refresh requests
// and applies them. Returns the number successfully processed; failures
// are logged and the message is still deleted, the periodic rebuild
// will converge any miss.
func (c *RefreshConsumer) ReadAndProcessMessages(ctx context.Context, batchSize int64) int {
	msgs, err := c.Reader.ReceiveMessages(batchSize)
	successCount := 0
	if err != nil {
		Logger.Log.Error("fail to read refresh messages from queue: ", err)
		return successCount
	}

	for _, msg := range msgs {
		if err := c.processOneMessage(ctx, msg); err != nil {
			Logger.Log.Errorf("fail to process refresh message: %v", err)
		} else {
			successCount++
		}
		if err := c.Reader.DeleteMessage(msg); err != nil {
			Logger.Log.Errorf("fail to delete refresh message from queue: %v", err)
		}
	}
	return successCount
}

func (c *RefreshConsumer) processOneMessage(ctx context.Context, msg *utils.MessageQueueMessage) error {
	body, err := msg.Read()
	if err != nil {
		return errors.Wrap(err, "fail to read message body")
	}

	var refresh RefreshMessage
	if err := json.Unmarshal([]byte(body), &refresh); err != nil {
		return errors.Wrap(err, "fail to decode refresh message")
	}
	if refresh.PostId == "" {
		return errors.New("refresh message without post id")
	}

	post, err := c.posts.Get(ctx, refresh.PostId)
	if err != nil {
		return errors.Wrap(err, "fail to load post for refresh")
	}
	if post == nil {
		c.index.Remove(refresh.PostId)
		return nil
	}
	c.index.Upsert(*post)
	return nil
}
