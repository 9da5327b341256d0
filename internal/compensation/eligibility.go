package compensation

import (
	"github.com/angelmondragon/backhouse/pkg/db/models"
	"github.com/angelmondragon/backhouse/pkg/enums"
)

// CanShowRefund reports whether the order may be refunded and which kind of
// refund applies.
//
//	unpaid, refunded, refund_partial, cancelled -> not refundable
//	completed + paid                             -> not refundable
//	pending + paid                               -> full
//	partially_paid, or completed + not paid      -> partial
func CanShowRefund(order models.Order) (bool, enums.RefundType) {
	switch order.PaymentStatus {
	case enums.PaymentStatusUnpaid,
		enums.PaymentStatusRefunded,
		enums.PaymentStatusRefundPartial,
		enums.PaymentStatusCancelled:
		return false, ""
	}
	if order.Status == enums.OrderStatusCancelled {
		return false, ""
	}
	if order.Status == enums.OrderStatusCompleted && order.PaymentStatus == enums.PaymentStatusPaid {
		return false, ""
	}
	if order.PaymentStatus == enums.PaymentStatusPaid && order.Status == enums.OrderStatusPending {
		return true, enums.RefundTypeFull
	}
	if order.PaymentStatus == enums.PaymentStatusPartiallyPaid {
		return true, enums.RefundTypePartial
	}
	if order.Status == enums.OrderStatusCompleted {
		return true, enums.RefundTypePartial
	}
	return false, ""
}

func alreadyRefunded(order models.Order) bool {
	return order.PaymentStatus == enums.PaymentStatusRefunded ||
		order.PaymentStatus == enums.PaymentStatusRefundPartial ||
		order.Status == enums.OrderStatusRefunded
}
