package payment

// LineItem は決済セッションに渡す1明細。Amount は最小通貨単位（セント）。
type LineItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Quantity    int64  `json:"quantity"`
}

type CreateSessionRequest struct {
	PaymentMethodTypes []string   `json:"payment_method_types"`
	LineItems          []LineItem `json:"line_items"`
	SuccessURL         string     `json:"success_url"`
	CancelURL          string     `json:"cancel_url"`
	ClientReferenceID  string     `json:"client_reference_id"`
	CustomerEmail      string     `json:"customer_email"`
}

const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

// Session はゲートウェイ側の決済セッション。
type Session struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	Status            string `json:"status"`
	PaymentStatus     string `json:"payment_status"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
}

func (s Session) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

const EventCheckoutSessionCompleted = "checkout.session.completed"

// Event はWebhookで届くイベント。
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object Session `json:"object"`
	} `json:"data"`
}
