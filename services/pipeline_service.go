package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/models"
	"github.com/tiendabot/tiendabot-api/utils"
)

const (
	clarificationReply  = "No llegué a entender qué productos querés. ¿Me decís producto y cantidad? Por ejemplo: \"2 coca cola y 1 pan\"."
	genericFailureReply = "Uy, algo salió mal procesando tu mensaje. ¿Probás de nuevo en un ratito?"
)

// HandleIncomingMessage runs one inbound customer message through the whole
// engine: office-hours precheck, interceptor chain, language-understanding
// proposal, hallucination filter, catalog matching, promotion pricing and
// the order upsert. It always produces exactly one reply, records both
// sides of the conversation, and hands the reply to the messenger.
func HandleIncomingMessage(ctx context.Context, db *gorm.DB, merchant *models.Merchant, client *models.Client, rawText string) (string, error) {
	if err := RecordMessage(db, merchant.ID, client.ID, models.MessageDirectionInbound, rawText); err != nil {
		return "", err
	}

	reply, err := processMessage(ctx, db, merchant, client, rawText)
	if err != nil {
		// Failures never go silent: the customer still gets one reply
		log.Printf("pipeline error for merchant %d client %d: %v", merchant.ID, client.ID, err)
		reply = genericFailureReply
	}

	if recordErr := RecordMessage(db, merchant.ID, client.ID, models.MessageDirectionOutbound, reply); recordErr != nil {
		log.Printf("failed to record outbound message: %v", recordErr)
	}
	if messenger := GetMessengerService(); messenger != nil {
		if sendErr := messenger.SendText(merchant, client, reply); sendErr != nil {
			log.Printf("failed to send reply: %v", sendErr)
		}
	}
	return reply, err
}

func processMessage(ctx context.Context, db *gorm.DB, merchant *models.Merchant, client *models.Client, rawText string) (string, error) {
	if !merchant.IsOpenAt(time.Now()) {
		return fmt.Sprintf("¡Hola! Ahora estamos cerrados. Atendemos de %s a %s.", merchant.OpensAt, merchant.ClosesAt), nil
	}

	pending, err := FindPendingOrder(db, merchant.ID, client.ID)
	if err != nil {
		return "", err
	}

	interceptCtx := &InterceptContext{
		DB:         db,
		Merchant:   merchant,
		Client:     client,
		RawText:    rawText,
		Normalized: utils.Normalize(rawText),
		Order:      pending,
	}
	if reply, handled, err := RunInterceptors(interceptCtx); handled {
		return reply, err
	}

	var catalog []models.Product
	if err := db.Where("merchant_id = ?", merchant.ID).Order("id").Find(&catalog).Error; err != nil {
		return "", fmt.Errorf("failed to load catalog: %w", err)
	}

	agent := GetAgentService()
	if agent == nil {
		return clarificationReply, nil
	}
	action, err := agent.ProposeAction(ctx, rawText, catalog, pending)
	if err != nil {
		return "", fmt.Errorf("language-understanding call failed: %w", err)
	}

	if action.ClientInfo != nil {
		if err := updateClientProfile(db, client, action.ClientInfo); err != nil {
			return "", err
		}
	}

	switch action.Type {
	case ActionCancelOrder:
		if pending == nil {
			return "No tenés ningún pedido abierto para cancelar.", nil
		}
		if err := CancelOrder(db, pending); err != nil {
			return "", err
		}
		return fmt.Sprintf("Listo, cancelé tu pedido #%d.", pending.SequenceNumber), nil

	case ActionUpsertOrder:
		return applyUpsertAction(db, merchant, client, pending, action, rawText)

	case ActionAskClarification:
		if action.Status != "" {
			return action.Status, nil
		}
		return clarificationReply, nil

	default:
		if action.Status != "" {
			return action.Status, nil
		}
		return "¡Hola! Decime qué productos querés y te armo el pedido.", nil
	}
}

func applyUpsertAction(db *gorm.DB, merchant *models.Merchant, client *models.Client, pending *models.Order, action *AgentAction, rawText string) (string, error) {
	items := FilterAgentItems(action, rawText)
	if len(items) == 0 {
		return clarificationReply, nil
	}

	var catalog []models.Product
	if err := db.Where("merchant_id = ?", merchant.ID).Order("id").Find(&catalog).Error; err != nil {
		return "", fmt.Errorf("failed to load catalog: %w", err)
	}

	inputs := make([]ItemInput, 0, len(items))
	var unmatched []string
	for _, item := range items {
		name := item.NormalizedName
		if name == "" {
			name = item.Name
		}
		product, score := MatchProduct(name, catalog)
		if product == nil || score <= 0 {
			unmatched = append(unmatched, item.Name)
			continue
		}
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		inputs = append(inputs, ItemInput{ProductID: product.ID, Quantity: quantity})
	}

	// Never guess: any unresolved mention stops the whole upsert
	if len(unmatched) > 0 {
		return fmt.Sprintf("No encontré %q en el catálogo. ¿Me decís el nombre como figura en la lista?", strings.Join(unmatched, ", ")), nil
	}
	if len(inputs) == 0 {
		return clarificationReply, nil
	}

	mode := ModeSet
	switch action.Mode {
	case ModeReplace:
		mode = ModeReplace
	case ModeMerge:
		mode = ModeMerge
	}

	var existingOrderID *uint
	if pending != nil {
		// Editing invalidates a prior reservation
		if err := RestockOrder(db, pending); err != nil {
			return "", err
		}
		existingOrderID = &pending.ID
	}

	order, err := UpsertOrder(db, merchant, client, inputs, mode, existingOrderID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(OrderSummary(order))
	if client.IsComplete() {
		b.WriteString("\n\nMandá \"confirmar\" y te lo reservo.")
	} else {
		fmt.Fprintf(&b, "\n\nPara confirmar me falta: %s.", strings.Join(client.MissingFields(), ", "))
	}
	return b.String(), nil
}

// updateClientProfile fills in profile fields the conversation revealed.
// Existing values are only overwritten by non-empty extractions.
func updateClientProfile(db *gorm.DB, client *models.Client, info *ClientProfile) error {
	updates := map[string]interface{}{}
	if info.FullName != "" && info.FullName != client.FullName {
		updates["full_name"] = info.FullName
	}
	if info.DNI != "" && info.DNI != client.DNI {
		updates["dni"] = info.DNI
	}
	if info.Address != "" && info.Address != client.Address {
		updates["address"] = info.Address
	}
	if len(updates) == 0 {
		return nil
	}
	if err := db.Model(client).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update client profile: %w", err)
	}
	if name, ok := updates["full_name"]; ok {
		client.FullName = name.(string)
	}
	if dni, ok := updates["dni"]; ok {
		client.DNI = dni.(string)
	}
	if address, ok := updates["address"]; ok {
		client.Address = address.(string)
	}
	return nil
}
