package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 构建进度推送中心。客户端按任务id订阅，事件尽力投递、至多一次，
// 不做回放，完整日志以任务记录的log字段为准。

const (
	EventBuildLog    = "build-log"
	EventBuildStatus = "build-status"

	ActionSubscribe   = "subscribe-task"
	ActionUnsubscribe = "unsubscribe-task"
)

const sendBuffer = 64

type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type LogEvent struct {
	TaskId    string `json:"task_id"`
	Log       string `json:"log"`
	Level     string `json:"level"`
	Timestamp int64  `json:"timestamp"`
}

type StatusEvent struct {
	TaskId    string      `json:"task_id"`
	Status    string      `json:"status"`
	Progress  *int        `json:"progress,omitempty"`
	Message   string      `json:"message,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type inbound struct {
	Action string `json:"action"`
	TaskId string `json:"task_id"`
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userId int64
	send   chan []byte
	done   chan struct{}
}

type Hub struct {
	log *zap.Logger

	mux     sync.RWMutex
	byTask  map[string]map[*Client]struct{}
	clients map[*Client]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		byTask:  make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// Serve 接管一条已认证的websocket连接，阻塞到连接关闭
func (h *Hub) Serve(conn *websocket.Conn, userId int64) {
	c := &Client{
		hub:    h,
		conn:   conn,
		userId: userId,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	h.mux.Lock()
	h.clients[c] = struct{}{}
	h.mux.Unlock()

	go c.writePump()
	c.readPump()
}

func (h *Hub) PublishLog(taskId, line, level string) {
	h.publish(taskId, Envelope{Event: EventBuildLog, Data: LogEvent{
		TaskId:    taskId,
		Log:       line,
		Level:     level,
		Timestamp: time.Now().UnixMilli(),
	}})
}

func (h *Hub) PublishStatus(ev StatusEvent) {
	ev.Timestamp = time.Now().UnixMilli()
	h.publish(ev.TaskId, Envelope{Event: EventBuildStatus, Data: ev})
}

func (h *Hub) publish(taskId string, env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		h.log.Error("推送消息序列化失败", zap.Error(err))
		return
	}
	h.mux.RLock()
	subs := h.byTask[taskId]
	targets := make([]*Client, 0, len(subs))
	for c := range subs {
		targets = append(targets, c)
	}
	h.mux.RUnlock()
	for _, c := range targets {
		select {
		case c.send <- b:
		default:
			//发送缓冲满，放弃该条消息，慢客户端不阻塞构建
			h.log.Debug("推送缓冲已满，丢弃消息",
				zap.String("taskId", taskId), zap.Int64("userId", c.userId))
		}
	}
}

func (h *Hub) subscribe(c *Client, taskId string) {
	h.mux.Lock()
	defer h.mux.Unlock()
	if _, ok := h.byTask[taskId]; !ok {
		h.byTask[taskId] = make(map[*Client]struct{})
	}
	h.byTask[taskId][c] = struct{}{}
}

func (h *Hub) unsubscribe(c *Client, taskId string) {
	h.mux.Lock()
	defer h.mux.Unlock()
	if subs, ok := h.byTask[taskId]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.byTask, taskId)
		}
	}
}

func (h *Hub) drop(c *Client) {
	h.mux.Lock()
	defer h.mux.Unlock()
	delete(h.clients, c)
	for taskId, subs := range h.byTask {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.byTask, taskId)
		}
	}
}

// Subscribers 某任务当前的订阅连接数
func (h *Hub) Subscribers(taskId string) int {
	h.mux.RLock()
	defer h.mux.RUnlock()
	return len(h.byTask[taskId])
}

func (c *Client) readPump() {
	//send通道永不关闭，publish端随时可能还在写入；
	//断开通过done通知写泵退出
	defer func() {
		c.hub.drop(c)
		close(c.done)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err = json.Unmarshal(data, &msg); err != nil || msg.TaskId == "" {
			continue
		}
		switch msg.Action {
		case ActionSubscribe:
			c.hub.subscribe(c, msg.TaskId)
		case ActionUnsubscribe:
			c.hub.unsubscribe(c, msg.TaskId)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case b := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
