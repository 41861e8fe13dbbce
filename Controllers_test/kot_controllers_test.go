package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/table-ordering/models"
)

func TestKOTLifecycle(t *testing.T) {
	app := newTestApp(t)
	staff := app.staffToken(t, "kitchen", models.RoleStaff)
	table := app.seedTable(t, "T1")
	reg := app.registerCustomer(t, "1001", table.ID)

	_, resp := app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, orderPayload(1, 10, 1, table.ID, reg.Pin))
	orderID := resp["data"].(map[string]interface{})["orderId"]

	code, resp := app.do(t, http.MethodPost, "/api/v1/kot/send", reg.AccessToken, map[string]interface{}{
		"orderId": orderID,
		"kotType": models.KOTTypeAmendment,
		"items":   []map[string]interface{}{{"itemId": 9, "itemName": "Bread", "quantity": 2, "price": 1.5}},
		"reason":  "forgot the bread",
	})
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "KOT sent to kitchen successfully", resp["message"])
	sent := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), sent["itemCount"])
	assert.Equal(t, "T1", sent["tableName"])
	kotID := sent["kotId"].(string)

	code, resp = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/kot/order?orderId=%v", orderID), reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	kots := resp["data"].([]interface{})
	require.Len(t, kots, 2)
	parent := kots[0].(map[string]interface{})
	amendment := kots[1].(map[string]interface{})
	assert.Equal(t, models.KOTTypeNewOrder, parent["kotType"])
	assert.Equal(t, parent["kotId"], amendment["parentKotId"])
	item := amendment["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(3), item["totalPrice"])
	assert.Equal(t, models.KOTItemPending, item["kotStatus"])

	code, resp = app.do(t, http.MethodPatch, "/api/v1/kot/complete?kotId="+kotID, staff, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid KOT transition: PENDING -> COMPLETED", resp["message"])

	code, resp = app.do(t, http.MethodPatch, "/api/v1/kot/acknowledge?kotId="+kotID, staff, map[string]interface{}{})
	require.Equal(t, http.StatusOK, code)
	acked := resp["data"].(map[string]interface{})
	assert.Equal(t, models.KitchenStatusAcknowledged, acked["kitchenStatus"])
	assert.Equal(t, "Kitchen Staff", acked["acknowledgedBy"])

	code, resp = app.do(t, http.MethodPatch, "/api/v1/kot/complete?kotId="+kotID, staff, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "KOT completed successfully", resp["message"])

	code, _ = app.do(t, http.MethodPatch, "/api/v1/kot/acknowledge?kotId="+kotID, staff, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSendKOTValidation(t *testing.T) {
	app := newTestApp(t)
	reg := app.registerCustomer(t, "1001", 0)
	items := []map[string]interface{}{{"itemId": 1, "itemName": "Soup", "quantity": 1, "price": 4}}

	code, resp := app.do(t, http.MethodPost, "/api/v1/kot/send", reg.AccessToken, map[string]interface{}{"orderId": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Order ID, KOT type, and items are required", resp["message"])

	code, resp = app.do(t, http.MethodPost, "/api/v1/kot/send", reg.AccessToken, map[string]interface{}{
		"orderId": 1, "kotType": "REPRINT", "items": items,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid KOT type. Must be NEW_ORDER or ORDER_AMENDMENT", resp["message"])

	code, resp = app.do(t, http.MethodPost, "/api/v1/kot/send", reg.AccessToken, map[string]interface{}{
		"orderId": 404, "kotType": models.KOTTypeNewOrder, "items": items,
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Order not found", resp["message"])
}

func TestAcknowledgeKOTErrors(t *testing.T) {
	app := newTestApp(t)
	staff := app.staffToken(t, "kitchen", models.RoleStaff)

	code, resp := app.do(t, http.MethodPatch, "/api/v1/kot/acknowledge", staff, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "KOT ID is required", resp["message"])

	code, resp = app.do(t, http.MethodPatch, "/api/v1/kot/acknowledge?kotId=KOT-19990101-000000", staff, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "KOT not found", resp["message"])
}
