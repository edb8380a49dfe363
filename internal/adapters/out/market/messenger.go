package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Messenger implements BuyerMessenger over the marketplace chat API.
// The chat endpoints live under the business, not the campaign, and require
// the buyer-chats permission on the API key.
type Messenger struct {
	client *Client
}

// NewMessenger creates the buyer chat messenger.
func NewMessenger(client *Client) *Messenger {
	return &Messenger{client: client}
}

type chatListDTO struct {
	Result struct {
		Chats []struct {
			ChatID int64 `json:"chatId"`
		} `json:"chats"`
	} `json:"result"`
}

type newChatDTO struct {
	Result struct {
		ChatID int64 `json:"chatId"`
	} `json:"result"`
}

// SendToBuyer finds the order's chat, creating one when none exists yet,
// and posts the message into it.
func (m *Messenger) SendToBuyer(ctx context.Context, orderID int64, text string) error {
	chatID, err := m.findChat(ctx, orderID)
	if err != nil {
		return err
	}
	if chatID == 0 {
		if chatID, err = m.createChat(ctx, orderID); err != nil {
			return err
		}
	}

	return m.sendMessage(ctx, chatID, text)
}

func (m *Messenger) findChat(ctx context.Context, orderID int64) (int64, error) {
	var chats chatListDTO

	path := fmt.Sprintf("/businesses/%d/chats", m.client.businessID)
	body := map[string]any{"orderIds": []int64{orderID}}
	if err := m.client.postJSON(ctx, path, nil, body, &chats); err != nil {
		return 0, fmt.Errorf("list chats for order %d: %w", orderID, err)
	}

	if len(chats.Result.Chats) == 0 {
		return 0, nil
	}
	return chats.Result.Chats[0].ChatID, nil
}

func (m *Messenger) createChat(ctx context.Context, orderID int64) (int64, error) {
	var chat newChatDTO

	path := fmt.Sprintf("/businesses/%d/chats/new", m.client.businessID)
	body := map[string]any{"orderId": orderID}
	if err := m.client.postJSON(ctx, path, nil, body, &chat); err != nil {
		return 0, fmt.Errorf("create chat for order %d: %w", orderID, err)
	}
	return chat.Result.ChatID, nil
}

// sendMessage posts the text. This is the one endpoint the API wants as an
// urlencoded form, with the chat id in the query string.
func (m *Messenger) sendMessage(ctx context.Context, chatID int64, text string) error {
	path := fmt.Sprintf("/businesses/%d/chats/message", m.client.businessID)

	query := url.Values{}
	query.Set("chatId", strconv.FormatInt(chatID, 10))

	form := url.Values{}
	form.Set("message", text)

	if err := m.client.postForm(ctx, path, query, form, nil); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}
