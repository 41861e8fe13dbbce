package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/table-ordering/middlewares"
	"github.com/yeremiapane/table-ordering/notifier"
	"github.com/yeremiapane/table-ordering/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // staff auth already ran on the handshake
	},
}

type CashierController struct {
	Hub *notifier.Hub
}

func NewCashierController(hub *notifier.Hub) *CashierController {
	return &CashierController{Hub: hub}
}

// CashierSocket -> websocket for POS displays, receives order_created and
// pin_generated
func (cc *CashierController) CashierSocket(c *gin.Context) {
	staff := middlewares.CurrentStaff(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	label := "cashier"
	if staff != nil {
		label = fmt.Sprintf("%s#%d", staff.UserName, staff.UserID)
	}
	cc.Hub.Register(ws, label)
	defer cc.Hub.Unregister(ws)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		var msg struct {
			Event string `json:"event"`
		}
		if json.Unmarshal(raw, &msg) != nil || msg.Event != notifier.EventAuthenticate {
			continue
		}
		reply := notifier.NewMessage(notifier.EventAuthenticated, gin.H{
			"success": true,
			"message": "Connected to POS Mobile real-time updates",
		})
		if err := cc.Hub.Send(ws, reply); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"client": label}).WithError(err).Warn("authenticated reply failed")
			break
		}
	}
}
