package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ishcherbinin/telegram-bot-booking/internal/config"
	"github.com/ishcherbinin/telegram-bot-booking/internal/model"
	"github.com/ishcherbinin/telegram-bot-booking/internal/service"
	"github.com/ishcherbinin/telegram-bot-booking/internal/storage"
)

// Dialogue steps of the booking conversation. Each chat is in exactly one
// step; stateIdle means no flow is in progress.
const (
	stateIdle = iota
	stateSeats
	stateDate
	stateName
	stateTime
	stateConfirm
	stateCancelDate
	stateCancelTable
)

// draft accumulates the answers of one chat's booking (or cancellation)
// flow until it is confirmed or abandoned. The TableRef keeps the flow
// anchored on the live calendar record across turns.
type draft struct {
	seats int
	date  time.Time
	ref   storage.TableRef
	name  string
}

const helpText = `I can book a table in the restaurant for you.

/book - book a table
/cancel - cancel one of your reservations
/mybookings - list your reservations
/help - show this message`

func main() {
	cfg := config.LoadBot()

	store, err := storage.FromTemplateFile(cfg.TablesFile)
	if err != nil {
		log.Fatalf("load table inventory: %v", err)
	}
	if _, err := os.Stat(cfg.BackupFile); err == nil {
		if err := store.RestoreFromFile(cfg.BackupFile); err != nil {
			log.Printf("restore from %s failed: %v; continuing with a clean calendar", cfg.BackupFile, err)
		} else {
			log.Printf("restored calendar from %s", cfg.BackupFile)
		}
	}
	svc := service.NewBookingService(store, cfg.BackupFile)

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		log.Fatalf("init telegram bot: %v", err)
	}
	log.Printf("bot %s started", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	// Per-chat dialogue state.
	states := make(map[int64]int)
	drafts := make(map[int64]*draft)

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Text == "" {
			continue
		}
		chatID := msg.Chat.ID

		if msg.IsCommand() {
			switch msg.Command() {
			case "start", "help":
				reply(bot, chatID, helpText)
			case "book":
				drafts[chatID] = &draft{}
				states[chatID] = stateSeats
				reply(bot, chatID, "Please provide the number of seats you need")
			case "cancel":
				drafts[chatID] = &draft{}
				states[chatID] = stateCancelDate
				reply(bot, chatID, "Which date is the reservation for? Format: DD.MM.YYYY")
			case "mybookings":
				replyMyBookings(bot, chatID, svc, msg.From.ID)
			case "backup":
				if err := svc.Backup(); err != nil {
					log.Printf("backup failed: %v", err)
					reply(bot, chatID, "Backup failed, see server logs")
				} else {
					reply(bot, chatID, "Calendar backed up")
				}
			default:
				reply(bot, chatID, "Unknown command. Use /help to see what I can do")
			}
			continue
		}

		switch states[chatID] {
		case stateSeats:
			handleSeats(bot, chatID, msg.Text, states, drafts)
		case stateDate:
			handleDate(bot, chatID, msg.Text, svc, states, drafts)
		case stateName:
			handleName(bot, chatID, msg.Text, states, drafts)
		case stateTime:
			handleTime(bot, chatID, msg.Text, svc, states, drafts)
		case stateConfirm:
			handleConfirm(bot, chatID, msg, cfg.GroupChatID, svc, states, drafts)
		case stateCancelDate:
			handleCancelDate(bot, chatID, msg.Text, svc, msg.From.ID, states, drafts)
		case stateCancelTable:
			handleCancelTable(bot, chatID, msg.Text, svc, msg.From.ID, states, drafts)
		default:
			reply(bot, chatID, "Use /book to book a table or /help for the full list of commands")
		}
	}
}

func reply(bot *tgbotapi.BotAPI, chatID int64, text string) {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("send message to %d failed: %v", chatID, err)
	}
}

func handleSeats(bot *tgbotapi.BotAPI, chatID int64, text string, states map[int64]int, drafts map[int64]*draft) {
	seats, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || seats <= 0 {
		reply(bot, chatID, "Please enter a valid number. Number should be digit")
		return
	}
	drafts[chatID].seats = seats
	states[chatID] = stateDate
	reply(bot, chatID, "Which date would you like to book for? Format: DD.MM.YYYY or DD.MM")
}

func handleDate(bot *tgbotapi.BotAPI, chatID int64, text string, svc *service.BookingService, states map[int64]int, drafts map[int64]*draft) {
	date, err := parseUserDate(strings.TrimSpace(text))
	if err != nil {
		reply(bot, chatID, "Please enter a valid date in the format DD.MM.YYYY or DD.MM")
		return
	}
	d := drafts[chatID]
	table, ref, err := svc.FindTable(date, d.seats)
	if err != nil {
		reply(bot, chatID, "Sorry, we don't have a table for this number of seats on that date")
		states[chatID] = stateSeats
		reply(bot, chatID, "Please provide the number of seats you need")
		return
	}
	d.date = date
	d.ref = ref
	log.Printf("chat %d: found table %d (capacity %d) for %d seats", chatID, table.TableID, table.Capacity, d.seats)
	states[chatID] = stateName
	reply(bot, chatID, "Please provide name you want to book the table for")
}

func handleName(bot *tgbotapi.BotAPI, chatID int64, text string, states map[int64]int, drafts map[int64]*draft) {
	name := strings.TrimSpace(text)
	if name == "" {
		reply(bot, chatID, "Please provide a non-empty name")
		return
	}
	drafts[chatID].name = name
	states[chatID] = stateTime
	reply(bot, chatID, "Please provide time you want to book the table for. Format: HH:MM")
	reply(bot, chatID, "NOTE. Booking will be kept only for 1 hour after time you provided")
}

func handleTime(bot *tgbotapi.BotAPI, chatID int64, text string, svc *service.BookingService, states map[int64]int, drafts map[int64]*draft) {
	bt, err := model.ParseBookingTime(strings.TrimSpace(text))
	if err != nil || !bt.IsSet() {
		reply(bot, chatID, "Please enter a valid time in the format HH:MM")
		return
	}
	d := drafts[chatID]
	if err := svc.HoldTable(d.ref, d.name, bt); err != nil {
		log.Printf("chat %d: hold table failed: %v", chatID, err)
		reply(bot, chatID, "Sorry, this table was just taken. Let's start over")
		states[chatID] = stateSeats
		reply(bot, chatID, "Please provide the number of seats you need")
		return
	}
	reply(bot, chatID, fmt.Sprintf("Table for %d seats for %s on %s at %s",
		d.seats, d.name, d.date.Format(model.DateLayout), bt))
	states[chatID] = stateConfirm
	reply(bot, chatID, "Please confirm the booking. Answer Yes/No")
}

func handleConfirm(bot *tgbotapi.BotAPI, chatID int64, msg *tgbotapi.Message, groupChatID int64, svc *service.BookingService, states map[int64]int, drafts map[int64]*draft) {
	d := drafts[chatID]
	if !strings.EqualFold(strings.TrimSpace(msg.Text), "yes") {
		if err := svc.RejectBooking(d.ref); err != nil {
			log.Printf("chat %d: reject booking failed: %v", chatID, err)
		}
		reply(bot, chatID, "Booking is rejected")
		delete(drafts, chatID)
		states[chatID] = stateIdle
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	table, err := svc.ConfirmBooking(context.Background(), d.ref, userID)
	if err != nil {
		log.Printf("chat %d: confirm booking failed: %v", chatID, err)
		reply(bot, chatID, "Sorry, this table was just taken. Let's start over")
		delete(drafts, chatID)
		states[chatID] = stateSeats
		reply(bot, chatID, "Please provide the number of seats you need")
		return
	}
	reply(bot, chatID, fmt.Sprintf("Table %d for %d seats is booked for %s on %s at %s",
		table.TableID, table.Capacity, table.UserName, table.ReadableBookingDate(), table.ReadableBookingTime()))
	reply(bot, chatID, "Table is booked. Manager will contact you soon to confirm booking")

	if groupChatID != 0 {
		announcement := fmt.Sprintf("\nUser name: %s\nTable №: %d,\nNumber of seats: %d,\nBooking date: %s,\nBooking time: %s,\nName: %s",
			msg.From.UserName, table.TableID, table.Capacity, table.ReadableBookingDate(), table.ReadableBookingTime(), table.UserName)
		reply(bot, groupChatID, announcement)
	}

	delete(drafts, chatID)
	states[chatID] = stateIdle
}

func replyMyBookings(bot *tgbotapi.BotAPI, chatID int64, svc *service.BookingService, tgUserID int64) {
	bookings := svc.UserBookings(strconv.FormatInt(tgUserID, 10))
	if len(bookings) == 0 {
		reply(bot, chatID, "You have no reservations")
		return
	}
	var b strings.Builder
	b.WriteString("Your reservations:\n")
	for _, t := range bookings {
		fmt.Fprintf(&b, "Table %d (%d seats) on %s at %s for %s\n",
			t.TableID, t.Capacity, t.ReadableBookingDate(), t.ReadableBookingTime(), t.UserName)
	}
	reply(bot, chatID, b.String())
}

func handleCancelDate(bot *tgbotapi.BotAPI, chatID int64, text string, svc *service.BookingService, tgUserID int64, states map[int64]int, drafts map[int64]*draft) {
	date, err := parseUserDate(strings.TrimSpace(text))
	if err != nil {
		reply(bot, chatID, "Please enter a valid date in the format DD.MM.YYYY or DD.MM")
		return
	}
	userID := strconv.FormatInt(tgUserID, 10)
	var mine []string
	for _, t := range svc.TablesForDate(date) {
		if t.IsReserved && t.UserID == userID {
			mine = append(mine, fmt.Sprintf("Table %d (%d seats) at %s", t.TableID, t.Capacity, t.ReadableBookingTime()))
		}
	}
	if len(mine) == 0 {
		reply(bot, chatID, "You have no reservations on that date")
		states[chatID] = stateIdle
		return
	}
	drafts[chatID].date = date
	states[chatID] = stateCancelTable
	reply(bot, chatID, "Your reservations on that date:\n"+strings.Join(mine, "\n"))
	reply(bot, chatID, "Which table number should I cancel?")
}

func handleCancelTable(bot *tgbotapi.BotAPI, chatID int64, text string, svc *service.BookingService, tgUserID int64, states map[int64]int, drafts map[int64]*draft) {
	tableID, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || tableID <= 0 {
		reply(bot, chatID, "Please enter a valid table number")
		return
	}
	d := drafts[chatID]
	ref := storage.TableRef{Date: d.date, TableID: tableID}
	if err := svc.CancelBooking(ref, strconv.FormatInt(tgUserID, 10)); err != nil {
		log.Printf("chat %d: cancel booking failed: %v", chatID, err)
		reply(bot, chatID, "I could not cancel that reservation. Check the table number and try again")
		return
	}
	reply(bot, chatID, fmt.Sprintf("Reservation for table %d on %s is cancelled", tableID, d.date.Format(model.DateLayout)))
	delete(drafts, chatID)
	states[chatID] = stateIdle
}

// parseUserDate accepts DD.MM.YYYY or the short DD.MM form, which gets the
// current year. Dates in the past are rejected.
func parseUserDate(s string) (time.Time, error) {
	date, err := time.Parse(model.DateLayout, s)
	if err != nil {
		short, shortErr := time.Parse("02.01", s)
		if shortErr != nil {
			return time.Time{}, err
		}
		now := time.Now()
		date = time.Date(now.Year(), short.Month(), short.Day(), 0, 0, 0, 0, time.UTC)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return time.Time{}, fmt.Errorf("date %s is in the past", s)
	}
	return date, nil
}
