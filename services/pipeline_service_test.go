package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/models"
)

func setupPipelineTest(t *testing.T) (*gorm.DB, *models.Merchant, *models.Client, []models.Product, *MockAgentService, *MockMessengerService) {
	db := setupInterceptorTestDB(t)
	merchant, client, products := interceptorFixtures(t, db)

	agent := NewMockAgentService()
	agent.SetAsMockForTesting()
	messenger := NewMockMessengerService()
	messenger.SetAsMockForTesting()
	t.Cleanup(func() {
		SetAgentService(nil)
		SetMessengerService(nil)
	})

	return db, merchant, client, products, agent, messenger
}

func TestPipelineUpsertFromAgent(t *testing.T) {
	db, merchant, client, _, agent, messenger := setupPipelineTest(t)

	agent.QueueAction(&AgentAction{
		Type: ActionUpsertOrder,
		Mode: ModeMerge,
		Items: []ActionItem{
			{Name: "Coca Cola", NormalizedName: "coca cola", Quantity: 2},
		},
	})

	reply, err := HandleIncomingMessage(context.Background(), db, merchant, client, "quiero 2 coca cola")
	require.NoError(t, err)
	assert.Contains(t, reply, "Pedido #1")
	assert.Contains(t, reply, "2x Coca Cola 1.5L")
	assert.Contains(t, reply, "confirmar")
	assert.Equal(t, reply, messenger.LastText())

	order, err := FindPendingOrder(db, merchant.ID, client.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, 2*1500.0, order.TotalAmount)

	// Both sides of the turn are in the conversation log
	var messages []models.Message
	require.NoError(t, db.Order("id").Find(&messages).Error)
	require.Len(t, messages, 2)
	assert.Equal(t, models.MessageDirectionInbound, messages[0].Direction)
	assert.Equal(t, "quiero 2 coca cola", messages[0].Text)
	assert.Equal(t, models.MessageDirectionOutbound, messages[1].Direction)
}

func TestPipelineMergeAddsToExistingOrder(t *testing.T) {
	db, merchant, client, products, agent, _ := setupPipelineTest(t)

	_, err := UpsertOrder(db, merchant, client, []ItemInput{{ProductID: products[0].ID, Quantity: 2}}, ModeMerge, nil)
	require.NoError(t, err)

	agent.QueueAction(&AgentAction{
		Type:  ActionUpsertOrder,
		Mode:  ModeMerge,
		Items: []ActionItem{{Name: "Sprite", NormalizedName: "sprite", Quantity: 1}},
	})

	sprite := models.Product{MerchantID: merchant.ID, Name: "Sprite 1.5L", Price: 1400, Quantity: 8, Categories: "bebidas"}
	require.NoError(t, db.Create(&sprite).Error)

	_, err = HandleIncomingMessage(context.Background(), db, merchant, client, "agregar 1 sprite")
	require.NoError(t, err)

	order, err := FindPendingOrder(db, merchant.ID, client.ID)
	require.NoError(t, err)
	quantities := map[uint]int{}
	for _, line := range order.Items {
		quantities[line.ProductID] = line.Quantity
	}
	assert.Equal(t, 2, quantities[products[0].ID])
	assert.Equal(t, 1, quantities[sprite.ID])
}

func TestPipelineDropsHallucinatedItems(t *testing.T) {
	db, merchant, client, _, agent, _ := setupPipelineTest(t)

	agent.QueueAction(&AgentAction{
		Type: ActionUpsertOrder,
		Mode: ModeMerge,
		Items: []ActionItem{
			{Name: "Coca Cola", NormalizedName: "coca cola", Quantity: 2},
			{Name: "Factura", NormalizedName: "factura", Quantity: 12},
		},
	})

	_, err := HandleIncomingMessage(context.Background(), db, merchant, client, "mandame 2 cocas")
	require.NoError(t, err)

	order, err := FindPendingOrder(db, merchant.ID, client.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, order.Items, 1, "the item the customer never typed is discarded")
	assert.Equal(t, "Coca Cola 1.5L", order.Items[0].Product.Name)
}

func TestPipelineEmptyFilterAsksForProducts(t *testing.T) {
	db, merchant, client, _, agent, messenger := setupPipelineTest(t)

	agent.QueueAction(&AgentAction{
		Type:  ActionUpsertOrder,
		Items: []ActionItem{{Name: "Cerveza", NormalizedName: "cerveza", Quantity: 6}},
	})

	reply, err := HandleIncomingMessage(context.Background(), db, merchant, client, "hola buen dia")
	require.NoError(t, err)
	assert.Equal(t, clarificationReply, reply)
	assert.Equal(t, reply, messenger.LastText())

	order, err := FindPendingOrder(db, merchant.ID, client.ID)
	require.NoError(t, err)
	assert.Nil(t, order, "nothing is persisted when the filter empties the proposal")
}

func TestPipelineUnmatchedItemAsksForClarification(t *testing.T) {
	db, merchant, client, _, agent, _ := setupPipelineTest(t)

	agent.QueueAction(&AgentAction{
		Type:  ActionUpsertOrder,
		Items: []ActionItem{{Name: "Shampoo", NormalizedName: "shampoo", Quantity: 1}},
	})

	reply, err := HandleIncomingMessage(context.Background(), db, merchant, client, "quiero shampoo")
	require.NoError(t, err)
	assert.Contains(t, reply, "No encontré")

	order, err := FindPendingOrder(db, merchant.ID, client.ID)
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestPipelineInterceptorShortCircuitsAgent(t *testing.T) {
	db, merchant, client, products, agent, _ := setupPipelineTest(t)

	_, err := UpsertOrder(db, merchant, client, []ItemInput{{ProductID: products[0].ID, Quantity: 1}}, ModeMerge, nil)
	require.NoError(t, err)

	reply, err := HandleIncomingMessage(context.Background(), db, merchant, client, "cancelar")
	require.NoError(t, err)
	assert.Contains(t, reply, "cancelé")
	assert.Empty(t, agent.ReceivedTexts(), "interceptors resolve without the language-understanding call")
}

func TestPipelineOfficeHoursGate(t *testing.T) {
	db, merchant, client, _, agent, _ := setupPipelineTest(t)

	// 00:00-00:00 is an empty window: always closed
	require.NoError(t, db.Model(merchant).Updates(map[string]interface{}{"opens_at": "00:00", "closes_at": "00:00"}).Error)
	merchant.OpensAt = "00:00"
	merchant.ClosesAt = "00:00"

	reply, err := HandleIncomingMessage(context.Background(), db, merchant, client, "quiero 2 cocas")
	require.NoError(t, err)
	assert.Contains(t, reply, "cerrados")
	assert.Empty(t, agent.ReceivedTexts())
}

func TestPipelineAgentFailureStillReplies(t *testing.T) {
	db, merchant, client, _, agent, messenger := setupPipelineTest(t)

	agent.FailWith(errors.New("model timeout"))

	reply, err := HandleIncomingMessage(context.Background(), db, merchant, client, "quiero una coca")
	assert.Error(t, err)
	assert.Equal(t, genericFailureReply, reply)
	assert.Equal(t, reply, messenger.LastText(), "failures never go silent")
}

func TestPipelineUpdatesClientProfile(t *testing.T) {
	db, merchant, client, _, agent, _ := setupPipelineTest(t)

	require.NoError(t, db.Model(client).Updates(map[string]interface{}{"dni": "", "address": ""}).Error)
	client.DNI = ""
	client.Address = ""

	agent.QueueAction(&AgentAction{
		Type:       ActionGeneral,
		Status:     "¡Anotado!",
		ClientInfo: &ClientProfile{DNI: "31222333", Address: "Belgrano 1200"},
	})

	reply, err := HandleIncomingMessage(context.Background(), db, merchant, client, "mi dni es 31222333 y vivo en belgrano 1200")
	require.NoError(t, err)
	assert.Equal(t, "¡Anotado!", reply)

	var stored models.Client
	require.NoError(t, db.First(&stored, client.ID).Error)
	assert.Equal(t, "31222333", stored.DNI)
	assert.Equal(t, "Belgrano 1200", stored.Address)
	assert.True(t, stored.IsComplete())
}

func TestPipelineCancelWithoutPendingOrder(t *testing.T) {
	db, merchant, client, _, agent, _ := setupPipelineTest(t)

	agent.QueueAction(&AgentAction{Type: ActionCancelOrder})

	reply, err := HandleIncomingMessage(context.Background(), db, merchant, client, "quiero dar de baja lo anterior")
	require.NoError(t, err)
	assert.Contains(t, reply, "ningún pedido abierto")
}

func TestPipelineEditRestocksReservedOrder(t *testing.T) {
	db, merchant, client, products, agent, _ := setupPipelineTest(t)

	order, err := UpsertOrder(db, merchant, client, []ItemInput{{ProductID: products[0].ID, Quantity: 4}}, ModeMerge, nil)
	require.NoError(t, err)
	require.NoError(t, ReserveStock(db, order, map[uint]int{products[0].ID: 4}))

	agent.QueueAction(&AgentAction{
		Type:  ActionUpsertOrder,
		Mode:  ModeMerge,
		Items: []ActionItem{{Name: "Factura", NormalizedName: "factura", Quantity: 6}},
	})

	_, err = HandleIncomingMessage(context.Background(), db, merchant, client, "sumale 6 facturas")
	require.NoError(t, err)

	// The prior reservation was undone before the edit
	var coca models.Product
	require.NoError(t, db.First(&coca, products[0].ID).Error)
	assert.Equal(t, 10, coca.Quantity)

	fresh, err := FindPendingOrder(db, merchant.ID, client.ID)
	require.NoError(t, err)
	assert.False(t, fresh.InventoryDeducted)
	assert.False(t, fresh.CustomerConfirmed)
	assert.Len(t, fresh.Items, 2)
}
