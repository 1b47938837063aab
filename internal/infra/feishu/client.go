package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"go.uber.org/zap"
)

const openAPIBase = "https://open.feishu.cn/open-apis"

// Receive ID types for SendText
const (
	ReceiveChat   = larkim.ReceiveIdTypeChatId
	ReceiveOpenID = larkim.ReceiveIdTypeOpenId
)

// APIError is a non-success response from the open platform
type APIError struct {
	Op   string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Op, e.Code, e.Msg)
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// Client is the Feishu API client
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	botOpenID string // Bot's own open_id, fetched at Connect
	logger    *zap.Logger
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string, logger *zap.Logger) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
		logger:    logger.Named("feishu"),
	}
}

// Connect resolves the bot identity; mention filtering needs it
func (c *Client) Connect(ctx context.Context) error {
	if err := c.fetchBotOpenID(ctx); err != nil {
		return fmt.Errorf("fetch bot open_id: %w", err)
	}
	return nil
}

// BotOpenID returns the bot's own open_id ("" before Connect)
func (c *Client) BotOpenID() string {
	return c.botOpenID
}

// Listen receives messages over WebSocket until ctx is done.
// handler runs on its own goroutine so the SDK can ACK immediately.
func (c *Client) Listen(ctx context.Context, handler MessageHandler) error {
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(_ context.Context, event *larkim.P2MessageReceiveV1) error {
			if msg := c.convertEvent(event); msg != nil {
				go handler(msg)
			}
			return nil
		})

	wsCli := larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	c.logger.Info("starting websocket connection")

	// The SDK's Start does not return on cancellation
	errCh := make(chan error, 1)
	go func() { errCh <- wsCli.Start(ctx) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// fetchBotOpenID fetches the bot's own open_id
func (c *Client) fetchBotOpenID(ctx context.Context) error {
	// 1. tenant_access_token
	tokenBody, _ := json.Marshal(map[string]string{"app_id": c.appID, "app_secret": c.appSecret})
	tokenReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		openAPIBase+"/auth/v3/tenant_access_token/internal", strings.NewReader(string(tokenBody)))
	if err != nil {
		return err
	}
	tokenReq.Header.Set("Content-Type", "application/json")

	tokenResp, err := http.DefaultClient.Do(tokenReq)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	defer tokenResp.Body.Close()

	var tokenResult struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(tokenResp.Body).Decode(&tokenResult); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if tokenResult.Code != 0 {
		return &APIError{Op: "get token", Code: tokenResult.Code, Msg: tokenResult.Msg}
	}

	// 2. bot info
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAPIBase+"/bot/v3/info", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tokenResult.TenantAccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	defer resp.Body.Close()

	var botResult struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Bot  struct {
			OpenID  string `json:"open_id"`
			AppName string `json:"app_name"`
		} `json:"bot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&botResult); err != nil {
		return fmt.Errorf("decode bot info: %w", err)
	}
	if botResult.Code != 0 {
		return &APIError{Op: "get bot info", Code: botResult.Code, Msg: botResult.Msg}
	}

	c.botOpenID = botResult.Bot.OpenID
	c.logger.Info("bot identity", zap.String("open_id", c.botOpenID), zap.String("name", botResult.Bot.AppName))
	return nil
}

// SendText sends a text message and returns its message ID.
// receiveIDType is ReceiveChat or ReceiveOpenID.
func (c *Client) SendText(ctx context.Context, receiveIDType, receiveID, text string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(larkim.MsgTypeText).
			Content(textContent(text)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return "", &APIError{Op: "send message", Code: resp.Code, Msg: resp.Msg}
	}

	msgID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		msgID = *resp.Data.MessageId
	}
	c.logger.Debug("message sent", zap.String("to", receiveID), zap.String("id", msgID))
	return msgID, nil
}

// Reply sends a text message in reply to msgID
func (c *Client) Reply(ctx context.Context, msgID, text string) error {
	req := larkim.NewReplyMessageReqBuilder().
		MessageId(msgID).
		Body(larkim.NewReplyMessageReqBodyBuilder().
			MsgType(larkim.MsgTypeText).
			Content(textContent(text)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Reply(ctx, req)
	if err != nil {
		return fmt.Errorf("reply message failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "reply message", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// Forward forwards msgID into a chat
func (c *Client) Forward(ctx context.Context, msgID, chatID string) error {
	req := larkim.NewForwardMessageReqBuilder().
		MessageId(msgID).
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewForwardMessageReqBodyBuilder().
			ReceiveId(chatID).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Forward(ctx, req)
	if err != nil {
		return fmt.Errorf("forward message failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "forward message", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// Delete recalls a message
func (c *Client) Delete(ctx context.Context, msgID string) error {
	req := larkim.NewDeleteMessageReqBuilder().
		MessageId(msgID).
		Build()

	resp, err := c.larkCli.Im.Message.Delete(ctx, req)
	if err != nil {
		return fmt.Errorf("delete message failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "delete message", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// AddMembers invites users (open_id) into a chat
func (c *Client) AddMembers(ctx context.Context, chatID string, openIDs []string) error {
	req := larkim.NewCreateChatMembersReqBuilder().
		ChatId(chatID).
		MemberIdType("open_id").
		Body(larkim.NewCreateChatMembersReqBodyBuilder().
			IdList(openIDs).
			Build()).
		Build()

	resp, err := c.larkCli.Im.ChatMembers.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("add chat members failed: %w", err)
	}
	if !resp.Success() {
		return &APIError{Op: "add chat members", Code: resp.Code, Msg: resp.Msg}
	}
	return nil
}

// ListMessages returns messages of a chat created at or after
// startSeconds (Unix seconds, 0 for no bound), oldest first.
// pageSize is capped at 50.
func (c *Client) ListMessages(ctx context.Context, chatID string, startSeconds int64, pageSize int) ([]*Message, error) {
	if pageSize > 50 || pageSize <= 0 {
		pageSize = 50
	}

	builder := larkim.NewListMessageReqBuilder().
		ContainerIdType("chat").
		ContainerId(chatID).
		PageSize(pageSize)
	if startSeconds > 0 {
		builder = builder.StartTime(strconv.FormatInt(startSeconds, 10)).SortType("ByCreateTimeAsc")
	} else {
		// Descending gives the latest page instead of the oldest
		builder = builder.SortType("ByCreateTimeDesc")
	}

	resp, err := c.larkCli.Im.Message.List(ctx, builder.Build())
	if err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	if !resp.Success() {
		return nil, &APIError{Op: "list messages", Code: resp.Code, Msg: resp.Msg}
	}

	var messages []*Message
	if resp.Data == nil {
		return messages, nil
	}
	for _, item := range resp.Data.Items {
		msg := &Message{
			ChatID:     chatID,
			MsgID:      deref(item.MessageId),
			MsgType:    deref(item.MsgType),
			MentionMap: make(map[string]string),
		}
		if ts, err := strconv.ParseInt(deref(item.CreateTime), 10, 64); err == nil {
			msg.CreateTime = ts
		}
		for _, mention := range item.Mentions {
			if mention.Key != nil && mention.Name != nil {
				msg.MentionMap[*mention.Key] = *mention.Name
			}
			if id := deref(mention.Id); id != "" {
				msg.Mentions = append(msg.Mentions, id)
				if id == c.botOpenID {
					msg.MentionsBot = true
				}
			}
		}
		if item.Body != nil && item.Body.Content != nil {
			msg.Content = extractText(msg.MsgType, *item.Body.Content, msg.MentionMap)
		}
		if item.Sender != nil {
			msg.Sender = &Sender{
				SenderID:   deref(item.Sender.Id),
				SenderType: deref(item.Sender.SenderType),
			}
		}
		messages = append(messages, msg)
	}

	if startSeconds == 0 {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	c.logger.Debug("listed messages", zap.String("chat", chatID), zap.Int("count", len(messages)))
	return messages, nil
}

// convertEvent maps a receive event, dropping the bot's own messages
func (c *Client) convertEvent(event *larkim.P2MessageReceiveV1) *Message {
	if event == nil || event.Event == nil || event.Event.Message == nil {
		return nil
	}
	raw := event.Event.Message

	// Messages sent by the bot itself would loop
	if event.Event.Sender != nil && deref(event.Event.Sender.SenderType) == "app" {
		return nil
	}

	msg := &Message{
		ChatID:     deref(raw.ChatId),
		MsgID:      deref(raw.MessageId),
		MsgType:    deref(raw.MessageType),
		ChatType:   deref(raw.ChatType),
		MentionMap: make(map[string]string),
	}
	if ts, err := strconv.ParseInt(deref(raw.CreateTime), 10, 64); err == nil {
		msg.CreateTime = ts
	}
	if event.Event.Sender != nil {
		msg.Sender = &Sender{SenderType: deref(event.Event.Sender.SenderType)}
		if event.Event.Sender.SenderId != nil {
			msg.Sender.SenderID = deref(event.Event.Sender.SenderId.OpenId)
		}
	}
	for _, mention := range raw.Mentions {
		if mention.Id != nil && mention.Id.OpenId != nil {
			msg.Mentions = append(msg.Mentions, *mention.Id.OpenId)
			if *mention.Id.OpenId == c.botOpenID {
				msg.MentionsBot = true
			}
		}
		if mention.Key != nil && mention.Name != nil {
			msg.MentionMap[*mention.Key] = *mention.Name
		}
	}

	msg.Content = extractText(msg.MsgType, deref(raw.Content), msg.MentionMap)
	if msg.Content == "" {
		c.logger.Debug("skipping message without text", zap.String("type", msg.MsgType), zap.String("id", msg.MsgID))
		return nil
	}
	return msg
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
