package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/notifier"
)

func TestPlaceOrderRequiresPin(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")
	reg := app.registerCustomer(t, "1001", table.ID)

	code, resp := app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, orderPayload(1, 10, 1, table.ID, ""))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, true, resp["requiresPin"])

	wrong := "000000"
	if reg.Pin == wrong {
		wrong = "999999"
	}
	code, resp = app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, orderPayload(1, 10, 1, table.ID, wrong))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, true, resp["invalidPin"])

	var count int64
	app.DB.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestPlaceOrderAndMerge(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")
	reg := app.registerCustomer(t, "1001", table.ID)

	code, resp := app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, orderPayload(1, 10, 2, table.ID, reg.Pin))
	require.Equal(t, http.StatusCreated, code, resp)
	assert.Equal(t, "Order placed successfully", resp["message"])
	first := resp["data"].(map[string]interface{})
	assert.Equal(t, false, first["isUpdate"])
	assert.Equal(t, float64(20), first["updatedTotal"])
	assert.Regexp(t, `^ORD-\d{8}-\d{4}$`, first["orderNumber"])

	var stored models.Table
	require.NoError(t, app.DB.First(&stored, table.ID).Error)
	assert.False(t, stored.IsAvailable)
	assert.Equal(t, first["orderNumber"], stored.OrderID)

	code, resp = app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, orderPayload(2, 5, 1, table.ID, reg.Pin))
	require.Equal(t, http.StatusCreated, code, resp)
	assert.Equal(t, "Items added to existing order successfully", resp["message"])
	second := resp["data"].(map[string]interface{})
	assert.Equal(t, true, second["isUpdate"])
	assert.Equal(t, first["orderId"], second["orderId"])
	assert.Equal(t, float64(25), second["updatedTotal"])
	assert.Equal(t, float64(2), second["totalItems"])

	events := app.Events.Topic(notifier.EventOrderCreated)
	require.Len(t, events, 2)

	var kots []models.KOT
	require.NoError(t, app.DB.Order("id ASC").Find(&kots).Error)
	require.Len(t, kots, 2)
	assert.Equal(t, models.KOTTypeNewOrder, kots[0].KOTType)
	assert.Equal(t, models.KOTTypeAmendment, kots[1].KOTType)
	require.NotNil(t, kots[1].ParentKOTID)
	assert.Equal(t, kots[0].KOTID, *kots[1].ParentKOTID)

	var customer models.Customer
	require.NoError(t, app.DB.First(&customer, reg.CustomerID).Error)
	assert.Equal(t, []string{first["orderNumber"].(string)}, customer.ActiveOrders())
}

func TestPlaceOrderFlagsCart(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")
	reg := app.registerCustomer(t, "1001", table.ID)
	soup := app.seedItem(t, "Soup", 10, true)

	_, resp := app.do(t, http.MethodPost, "/api/v1/cart/add", reg.AccessToken, map[string]interface{}{"itemId": soup.ID})
	cartID := resp["data"].(map[string]interface{})["id"]

	body := orderPayload(soup.ID, 10, 1, table.ID, reg.Pin)
	body["cartId"] = cartID
	code, resp := app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, body)
	require.Equal(t, http.StatusCreated, code)
	orderNumber := resp["data"].(map[string]interface{})["orderNumber"]

	var cart models.Cart
	require.NoError(t, app.DB.First(&cart, uint(cartID.(float64))).Error)
	assert.True(t, cart.OrderIsPlaced)
	assert.Equal(t, orderNumber, cart.OrderID)
}

func TestGetOrder(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")
	reg := app.registerCustomer(t, "1001", table.ID)

	_, resp := app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, orderPayload(1, 10, 1, table.ID, reg.Pin))
	orderID := resp["data"].(map[string]interface{})["orderId"]

	code, resp := app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/order/get?orderId=%v", orderID), reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Order retrieved successfully", resp["message"])
	assert.Len(t, resp["data"].(map[string]interface{})["items"], 1)

	code, _ = app.do(t, http.MethodGet, "/api/v1/order/get?orderId=999", reg.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = app.do(t, http.MethodGet, "/api/v1/order/get", reg.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAddItemsToOrder(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")
	reg := app.registerCustomer(t, "1001", table.ID)

	_, resp := app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, orderPayload(1, 10, 1, table.ID, reg.Pin))
	orderID := resp["data"].(map[string]interface{})["orderId"]
	url := fmt.Sprintf("/api/v1/order/add-items?orderId=%v", orderID)

	code, resp := app.do(t, http.MethodPut, url, reg.AccessToken, map[string]interface{}{
		"items":      []map[string]interface{}{{"itemId": 3, "itemName": "Tea", "quantity": 3, "price": 2}},
		"sessionPin": reg.Pin,
	})
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "Items added to order successfully", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["newItemCount"])
	assert.Equal(t, float64(16), data["updatedTotal"])

	code, resp = app.do(t, http.MethodPut, url, reg.AccessToken, map[string]interface{}{
		"items":      []map[string]interface{}{{"itemId": 3, "quantity": 1, "price": 2}},
		"sessionPin": "not-it",
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, true, resp["invalidPin"])
}

func TestVerifyPinEndpoint(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")
	reg := app.registerCustomer(t, "1001", table.ID)

	code, resp := app.do(t, http.MethodPost, "/api/v1/order/verify-pin", reg.AccessToken, map[string]interface{}{"tableId": table.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Session PIN is required", resp["message"])

	code, resp = app.do(t, http.MethodPost, "/api/v1/order/verify-pin", reg.AccessToken, map[string]interface{}{"sessionPin": reg.Pin})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Table ID is required", resp["message"])

	code, resp = app.do(t, http.MethodPost, "/api/v1/order/verify-pin", reg.AccessToken, map[string]interface{}{"tableId": 999, "sessionPin": reg.Pin})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Table not found", resp["message"])

	code, resp = app.do(t, http.MethodPost, "/api/v1/order/verify-pin", reg.AccessToken, map[string]interface{}{"tableId": table.ID, "sessionPin": reg.Pin})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["isValid"])
}

func TestPinOfAnotherCustomerIsRejected(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")
	other := app.seedTable(t, "T2")
	owner := app.registerCustomer(t, "1001", table.ID)
	stranger := app.registerCustomer(t, "2002", other.ID)

	code, resp := app.do(t, http.MethodPost, "/api/v1/order/place", stranger.AccessToken, orderPayload(1, 10, 1, table.ID, owner.Pin))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, true, resp["invalidPin"])
}

func TestSettleBill(t *testing.T) {
	app := newTestApp(t)
	staff := app.staffToken(t, "cashier", models.RoleStaff)
	table := app.seedTable(t, "T1")
	reg := app.registerCustomer(t, "1001", table.ID)

	app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, orderPayload(1, 10.10, 1, table.ID, reg.Pin))
	app.do(t, http.MethodPost, "/api/v1/order/place", reg.AccessToken, orderPayload(2, 5.25, 2, table.ID, reg.Pin))

	code, resp := app.do(t, http.MethodPatch, "/api/v1/order/settle?paymentMethod=bitcoin&tableId="+fmt.Sprint(table.ID), staff, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid payment method", resp["message"])

	code, resp = app.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/order/settle?paymentMethod=card&tableId=%d", table.ID), staff, nil)
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "Bill settled successfully. Thank you for your visit!", resp["message"])
	assert.Equal(t, true, resp["sessionEnded"])
	assert.Equal(t, true, resp["requiresNewScan"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["orderCount"])
	assert.Equal(t, 20.6, data["totalAmount"])

	var stored models.Table
	require.NoError(t, app.DB.First(&stored, table.ID).Error)
	assert.True(t, stored.IsAvailable)
	assert.Nil(t, stored.SessionPin)
	assert.Empty(t, stored.OrderID)

	var order models.Order
	require.NoError(t, app.DB.First(&order).Error)
	assert.True(t, order.BillIsSettle)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, models.PaymentMethodCard, order.PaymentMethod)

	code, resp = app.do(t, http.MethodGet, "/api/v1/customer/me", reg.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, true, resp["sessionEnded"])

	code, resp = app.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/order/settle?paymentMethod=cash&customerId=%d", reg.CustomerID), staff, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No active orders to settle", resp["message"])
}

func TestSettleBillNeedsTarget(t *testing.T) {
	app := newTestApp(t)
	staff := app.staffToken(t, "cashier", models.RoleStaff)

	code, resp := app.do(t, http.MethodPatch, "/api/v1/order/settle?paymentMethod=cash", staff, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Customer ID or Table ID is required", resp["message"])

	code, _ = app.do(t, http.MethodPatch, "/api/v1/order/settle?paymentMethod=cash&customerId=42", staff, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
