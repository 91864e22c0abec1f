package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/models"
)

// InterceptContext carries everything a rule needs to decide and act on one
// inbound message.
type InterceptContext struct {
	DB         *gorm.DB
	Merchant   *models.Merchant
	Client     *models.Client
	RawText    string
	Normalized string
	Order      *models.Order // most recent pending order, nil when none
}

// interceptorRule is one deterministic predicate+handler pair. Handlers
// return the reply to send; an empty reply with handled=false passes the
// message down the chain.
type interceptorRule struct {
	name    string
	matches func(*InterceptContext) bool
	handle  func(*InterceptContext) (string, error)
}

// interceptors are evaluated in order before the language-understanding
// path. Cancel outranks remove, which outranks accept-shortage; a bare
// affirmative is only a confirmation once no shortage needs accepting.
var interceptors = []interceptorRule{
	{name: "cancel-order", matches: matchesCancel, handle: handleCancel},
	{name: "remove-item", matches: matchesRemove, handle: handleRemove},
	{name: "accept-shortage", matches: matchesAcceptShortage, handle: handleAcceptShortage},
	{name: "confirm-order", matches: matchesConfirm, handle: handleConfirm},
}

// RunInterceptors evaluates the rule chain against the message. It returns
// handled=true with the reply when a rule resolved the message; otherwise
// the caller proceeds to the language-understanding path.
func RunInterceptors(ctx *InterceptContext) (string, bool, error) {
	for _, rule := range interceptors {
		if !rule.matches(ctx) {
			continue
		}
		reply, err := rule.handle(ctx)
		if err != nil {
			return "", true, fmt.Errorf("interceptor %s: %w", rule.name, err)
		}
		return reply, true, nil
	}
	return "", false, nil
}

var removalVerbs = map[string]bool{
	"quitar": true, "quita": true, "quitame": true,
	"sacar": true, "saca": true, "sacame": true,
	"eliminar": true, "elimina": true, "eliminame": true,
	"borrar": true, "borra": true, "borrame": true,
	"sin": true,
}

var modifyVerbs = map[string]bool{
	"agregar": true, "agrega": true, "agregame": true,
	"sumar": true, "suma": true, "sumame": true,
	"cambiar": true, "cambia": true, "cambiame": true,
	"poner": true, "pone": true, "poneme": true,
	"quitar": true, "quita": true, "sacar": true, "saca": true,
	"mas": true, "menos": true,
}

var affirmatives = map[string]bool{
	"si": true, "ok": true, "oka": true, "okey": true, "dale": true,
	"listo": true, "bueno": true, "genial": true, "perfecto": true,
	"barbaro": true, "joya": true, "sale": true, "va": true,
}

var articleWords = map[string]bool{
	"el": true, "la": true, "los": true, "las": true,
	"de": true, "del": true, "mi": true, "al": true,
	"por": true, "favor": true, "pedido": true, "orden": true,
}

var numberWords = map[string]int{
	"un": 1, "una": 1, "uno": 1, "dos": 2, "tres": 3, "cuatro": 4,
	"cinco": 5, "seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10,
}

var allMarkers = map[string]bool{
	"todo": true, "toda": true, "todos": true, "todas": true,
}

func matchesCancel(ctx *InterceptContext) bool {
	if ctx.Order == nil {
		return false
	}
	for _, field := range strings.Fields(ctx.Normalized) {
		if strings.HasPrefix(field, "cancel") || strings.HasPrefix(field, "anul") {
			return true
		}
	}
	return false
}

func handleCancel(ctx *InterceptContext) (string, error) {
	if err := CancelOrder(ctx.DB, ctx.Order); err != nil {
		return "", err
	}
	return fmt.Sprintf("Listo, cancelé tu pedido #%d. Cuando quieras hacemos uno nuevo.", ctx.Order.SequenceNumber), nil
}

func matchesRemove(ctx *InterceptContext) bool {
	if ctx.Order == nil {
		return false
	}
	for _, field := range strings.Fields(ctx.Normalized) {
		if removalVerbs[field] {
			return true
		}
	}
	return false
}

func handleRemove(ctx *InterceptContext) (string, error) {
	order := ctx.Order

	// Edits always happen against unreserved quantities
	if err := RestockOrder(ctx.DB, order); err != nil {
		return "", err
	}

	explicitQuantity, removeAll, candidate := parseRemoval(ctx.Normalized)

	if candidate == "" {
		return removalClarification(order), nil
	}

	// Match only against products already on this order, never the full
	// catalog, to avoid cross-order ambiguity
	lineProducts := make([]models.Product, 0, len(order.Items))
	for _, line := range order.Items {
		lineProducts = append(lineProducts, line.Product)
	}
	product, score := MatchProduct(candidate, lineProducts)
	if product == nil || score <= 0 {
		return removalClarification(order), nil
	}

	var line *models.OrderItem
	for i := range order.Items {
		if order.Items[i].ProductID == product.ID {
			line = &order.Items[i]
			break
		}
	}
	if line == nil {
		return removalClarification(order), nil
	}

	removal := line.Quantity
	if !removeAll && explicitQuantity > 0 {
		removal = explicitQuantity
	}
	remaining := line.Quantity - removal

	err := ctx.DB.Transaction(func(tx *gorm.DB) error {
		if remaining <= 0 {
			if err := tx.Delete(&models.OrderItem{}, line.ID).Error; err != nil {
				return fmt.Errorf("failed to delete order line: %w", err)
			}
		} else {
			if err := tx.Model(&models.OrderItem{}).Where("id = ?", line.ID).Update("quantity", remaining).Error; err != nil {
				return fmt.Errorf("failed to update order line: %w", err)
			}
		}
		total, err := RecomputeTotal(tx, order.ID)
		if err != nil {
			return err
		}
		if err := tx.Model(order).Update("total_amount", total).Error; err != nil {
			return fmt.Errorf("failed to update order total: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	fresh, err := reloadOrder(ctx.DB, order.ID)
	if err != nil {
		return "", err
	}
	ctx.Order = fresh

	if remaining <= 0 {
		return fmt.Sprintf("Saqué %s de tu pedido.\n\n%s", product.Name, OrderSummary(fresh)), nil
	}
	return fmt.Sprintf("Te dejé %dx %s.\n\n%s", remaining, product.Name, OrderSummary(fresh)), nil
}

// parseRemoval extracts the explicit quantity, the "all of it" marker and
// the residual product-name candidate from a normalized removal phrase.
func parseRemoval(normalized string) (quantity int, removeAll bool, candidate string) {
	var residual []string
	for _, field := range strings.Fields(normalized) {
		switch {
		case removalVerbs[field]:
		case allMarkers[field]:
			removeAll = true
		case articleWords[field]:
		default:
			if n, err := strconv.Atoi(field); err == nil {
				quantity = n
				continue
			}
			if n, ok := numberWords[field]; ok {
				quantity = n
				continue
			}
			residual = append(residual, field)
		}
	}
	return quantity, removeAll, strings.Join(residual, " ")
}

func removalClarification(order *models.Order) string {
	var b strings.Builder
	b.WriteString("¿Qué producto querés sacar? Tu pedido tiene:\n")
	for _, line := range order.Items {
		fmt.Fprintf(&b, "- %dx %s\n", line.Quantity, line.Product.Name)
	}
	return b.String()
}

func matchesAcceptShortage(ctx *InterceptContext) bool {
	if ctx.Order == nil || !isShortAffirmative(ctx.Normalized) {
		return false
	}
	// A reserved order already deducted its own stock; its lines are not short.
	if ctx.Order.InventoryDeducted {
		return false
	}
	shortages, err := CheckAvailability(ctx.DB, lineNeeds(ctx.Order))
	if err != nil {
		return false
	}
	return len(shortages) > 0
}

func handleAcceptShortage(ctx *InterceptContext) (string, error) {
	order := ctx.Order

	shortages, err := CheckAvailability(ctx.DB, lineNeeds(order))
	if err != nil {
		return "", err
	}

	err = ctx.DB.Transaction(func(tx *gorm.DB) error {
		for _, shortage := range shortages {
			var line models.OrderItem
			if err := tx.Where("order_id = ? AND product_id = ?", order.ID, shortage.Product.ID).First(&line).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return fmt.Errorf("failed to load order line: %w", err)
			}
			if shortage.Available <= 0 {
				if err := tx.Delete(&line).Error; err != nil {
					return fmt.Errorf("failed to delete order line: %w", err)
				}
			} else {
				if err := tx.Model(&line).Update("quantity", shortage.Available).Error; err != nil {
					return fmt.Errorf("failed to clamp order line: %w", err)
				}
			}
		}
		total, err := RecomputeTotal(tx, order.ID)
		if err != nil {
			return err
		}
		if err := tx.Model(order).Update("total_amount", total).Error; err != nil {
			return fmt.Errorf("failed to update order total: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	fresh, err := reloadOrder(ctx.DB, order.ID)
	if err != nil {
		return "", err
	}
	ctx.Order = fresh

	if len(fresh.Items) == 0 {
		return "Ajusté tu pedido al stock disponible y quedó vacío. ¿Querés pedir otra cosa?", nil
	}

	// With every shortage clamped away the same "ok" now confirms
	remaining, err := CheckAvailability(ctx.DB, lineNeeds(fresh))
	if err != nil {
		return "", err
	}
	if len(remaining) == 0 {
		return handleConfirm(ctx)
	}
	return fmt.Sprintf("Ajusté tu pedido al stock disponible.\n\n%s", OrderSummary(fresh)), nil
}

func matchesConfirm(ctx *InterceptContext) bool {
	if ctx.Order == nil {
		return false
	}
	for _, field := range strings.Fields(ctx.Normalized) {
		if modifyVerbs[field] {
			return false
		}
	}
	if strings.Contains(ctx.Normalized, "confirm") {
		return true
	}
	return isShortAffirmative(ctx.Normalized)
}

func handleConfirm(ctx *InterceptContext) (string, error) {
	order := ctx.Order

	if order.InventoryDeducted {
		return fmt.Sprintf("Tu pedido #%d ya está confirmado y reservado. Total: $%.2f.", order.SequenceNumber, order.TotalAmount), nil
	}

	if len(order.Items) == 0 {
		return "Tu pedido está vacío. Decime qué productos querés y te lo armo.", nil
	}

	if !ctx.Client.IsComplete() {
		return fmt.Sprintf("Para confirmar me falta: %s. ¿Me los pasás?", strings.Join(ctx.Client.MissingFields(), ", ")), nil
	}

	needs := lineNeeds(order)
	shortages, err := CheckAvailability(ctx.DB, needs)
	if err != nil {
		return "", err
	}
	if len(shortages) > 0 {
		var b strings.Builder
		b.WriteString("No me alcanza el stock para confirmar:\n")
		for _, shortage := range shortages {
			fmt.Fprintf(&b, "- %s: pediste %d y me quedan %d\n", shortage.Product.Name, shortage.Requested, shortage.Available)
		}
		b.WriteString("Si querés, mandá \"ok\" y ajusto las cantidades al stock.")
		return b.String(), nil
	}

	if err := RefreshCustomerSnapshot(ctx.DB, order, ctx.Client); err != nil {
		return "", err
	}

	if err := ReserveStock(ctx.DB, order, needs); err != nil {
		if errors.Is(err, ErrStockRace) {
			return "Uy, justo se vendió parte del stock mientras confirmabas. ¿Me mandás \"confirmar\" de nuevo?", nil
		}
		return "", err
	}

	return fmt.Sprintf("¡Pedido #%d confirmado! Total: $%.2f. Te avisamos cuando salga.", order.SequenceNumber, order.TotalAmount), nil
}

// isShortAffirmative reports whether the message is a brief "yes" style
// reply ("ok", "dale", "si listo").
func isShortAffirmative(normalized string) bool {
	fields := strings.Fields(normalized)
	if len(fields) == 0 || len(fields) > 3 {
		return false
	}
	for _, field := range fields {
		if !affirmatives[field] {
			return false
		}
	}
	return true
}

// lineNeeds groups the order's in-memory line quantities per product.
func lineNeeds(order *models.Order) map[uint]int {
	needs := make(map[uint]int, len(order.Items))
	for _, line := range order.Items {
		needs[line.ProductID] += line.Quantity
	}
	return needs
}

func reloadOrder(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items").Preload("Items.Product").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &order, nil
}

// OrderSummary renders the order's current lines and total for replies.
func OrderSummary(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pedido #%d:\n", order.SequenceNumber)
	for _, line := range order.Items {
		fmt.Fprintf(&b, "- %dx %s ($%.2f c/u)\n", line.Quantity, line.Product.Name, line.UnitPrice)
	}
	fmt.Fprintf(&b, "Total: $%.2f", order.TotalAmount)
	return b.String()
}
