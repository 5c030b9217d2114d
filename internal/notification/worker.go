package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"mouldtrack-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// job is one alert to fan out to every subscriber of a machine.
type job struct {
	MachineID string `json:"-"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// WorkerPool fans machine alerts out to push subscribers. It satisfies the
// registry's Notifier interface, so threshold warnings and breakdown reports
// never block on network I/O.
type WorkerPool struct {
	size    int
	jobs    chan job
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan job, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case j := <-wp.jobs:
			wp.sendForMachine(ctx, j)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// NotifyMaintenanceWarning alerts subscribers that a machine crossed the
// utilization warning watermark.
func (wp *WorkerPool) NotifyMaintenanceWarning(machineID, name string, ratio float64) {
	wp.dispatch(job{
		MachineID: machineID,
		Title:     fmt.Sprintf("Maintenance warning: %s", name),
		Body:      fmt.Sprintf("Machine %s reached %.1f%% of its utilization limit. Schedule maintenance soon.", name, ratio*100),
	})
}

// NotifyBreakdown alerts subscribers that a breakdown was reported.
func (wp *WorkerPool) NotifyBreakdown(machineID, name, rootCause string) {
	wp.dispatch(job{
		MachineID: machineID,
		Title:     fmt.Sprintf("Breakdown reported: %s", name),
		Body:      fmt.Sprintf("Machine %s is down. Root cause: %s", name, rootCause),
	})
}

// dispatch queues an alert; a full queue drops it with a log line rather than
// stalling the caller.
func (wp *WorkerPool) dispatch(j job) {
	select {
	case wp.jobs <- j:
	default:
		log.Printf("Notification queue full, dropping alert for machine %s", j.MachineID)
	}
}

// sendForMachine fetches subscriptions for a machine and pushes the alert to
// each of them.
func (wp *WorkerPool) sendForMachine(ctx context.Context, j job) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_machine_mapping smm ON smm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("smm.machine_record_id = ?", j.MachineID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for machine %s: %v", j.MachineID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(j)
	if err != nil {
		log.Printf("Error marshalling alert for machine %s: %v", j.MachineID, err)
		return
	}

	log.Printf("Sending %d notifications for machine %s", len(subscriptions), j.MachineID)
	for _, sub := range subscriptions {
		wp.send(ctx, sub, payload)
	}
}

// send pushes a single notification and prunes the subscription when the push
// service reports it gone.
func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
