package rtds

import (
	"encoding/json"
	"fmt"
)

// Subscribe subscribes to one or more topics
func (c *Client) Subscribe(subscriptions []Subscription) error {
	if !c.IsConnected() {
		return fmt.Errorf("client is not connected")
	}

	req := SubscriptionRequest{
		Action:        ActionSubscribe,
		Subscriptions: subscriptions,
	}

	if err := c.SendMessage(req); err != nil {
		return err
	}

	// Track active subscriptions for reconnection
	c.subscriptionsMutex.Lock()
	for _, sub := range subscriptions {
		exists := false
		for i, existing := range c.activeSubscriptions {
			if existing.Topic == sub.Topic && existing.Type == sub.Type && existing.Filters == sub.Filters {
				c.activeSubscriptions[i] = sub
				exists = true
				break
			}
		}
		if !exists {
			c.activeSubscriptions = append(c.activeSubscriptions, sub)
		}
	}
	c.subscriptionsMutex.Unlock()

	return nil
}

// Unsubscribe unsubscribes from one or more topics
func (c *Client) Unsubscribe(subscriptions []Subscription) error {
	if !c.IsConnected() {
		return fmt.Errorf("client is not connected")
	}

	req := SubscriptionRequest{
		Action:        ActionUnsubscribe,
		Subscriptions: subscriptions,
	}

	if err := c.SendMessage(req); err != nil {
		return err
	}

	c.subscriptionsMutex.Lock()
	for _, sub := range subscriptions {
		for i := len(c.activeSubscriptions) - 1; i >= 0; i-- {
			existing := c.activeSubscriptions[i]
			if existing.Topic == sub.Topic && existing.Type == sub.Type && existing.Filters == sub.Filters {
				c.activeSubscriptions = append(c.activeSubscriptions[:i], c.activeSubscriptions[i+1:]...)
				break
			}
		}
	}
	c.subscriptionsMutex.Unlock()

	return nil
}

// SubscribeToActivity subscribes to activity events (trades, orders_matched).
// With empty slugs the subscription covers the whole firehose; callers filter
// client-side.
func (c *Client) SubscribeToActivity(eventSlug, marketSlug string, activityTypes ...string) error {
	filters := ""
	if eventSlug != "" {
		filterMap := map[string]string{"event_slug": eventSlug}
		filterBytes, _ := json.Marshal(filterMap)
		filters = string(filterBytes)
	} else if marketSlug != "" {
		filterMap := map[string]string{"market_slug": marketSlug}
		filterBytes, _ := json.Marshal(filterMap)
		filters = string(filterBytes)
	}

	types := activityTypes
	if len(types) == 0 {
		types = []string{TypeTrades, TypeOrdersMatched}
	}

	var subscriptions []Subscription
	for _, t := range types {
		sub := Subscription{
			Topic:   TopicActivity,
			Type:    t,
			Filters: filters,
		}
		subscriptions = append(subscriptions, sub)
	}

	return c.Subscribe(subscriptions)
}
