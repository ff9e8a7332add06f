package notify

import (
	"context"
	"log"
	"sync"

	"github.com/Justinbown8/sces-website-sub001/internal/domain"
)

// Dispatcher sends the donor receipt and the admin alert for a recorded
// donation. It implements domain.ReceiptDispatcher.
type Dispatcher struct {
	sender ReceiptSender
}

func NewDispatcher(sender ReceiptSender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Dispatch sends both notifications concurrently and waits for both to
// finish. Each channel's failure is caught and reported independently;
// Dispatch itself never fails - the donation already happened, and the
// caller only needs to know which channels went through.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *domain.DonationRecord) domain.DispatchResult {
	var result domain.DispatchResult
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := d.sender.SendDonorReceipt(ctx, rec); err != nil {
			log.Printf("Donor receipt failed for %s: %v", rec.ReceiptNumber, err)
			result.DonorError = err.Error()
			return
		}
		result.DonorSent = true
	}()
	go func() {
		defer wg.Done()
		if err := d.sender.SendAdminAlert(ctx, rec); err != nil {
			log.Printf("Admin alert failed for %s: %v", rec.ReceiptNumber, err)
			result.AdminError = err.Error()
			return
		}
		result.AdminNotified = true
	}()
	wg.Wait()

	return result
}
