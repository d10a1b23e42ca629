// Package store selects the persistence backend named by STORE_DRIVER and
// hands out its repositories.
package store

import (
	calendarrepo "cabins/internal/calendar/repository"
	"cabins/internal/reservations/repository"
	roomrepo "cabins/internal/rooms/repository"
	"cabins/internal/store/memory"
	"cabins/pkg/config"
	mongotx "cabins/pkg/db/mongo"
)

type Stores struct {
	Tx           mongotx.TransactionManager
	Rooms        roomrepo.RoomRepository
	Reservations repository.ReservationRepository
	Calendar     calendarrepo.CalendarRepository
	Blocks       calendarrepo.BlockRepository
}

// Open connects to Mongo for the mongo driver. The memory driver keeps all
// state in the process and loses it on exit.
func Open(cfg *config.Config) *Stores {
	if !cfg.UsesMongo() {
		cfg.Log.Warn("Using in-memory store, state is not persisted")
		return FromMemory(memory.New())
	}

	if cfg.Client.Mongo == nil {
		cfg.SetMongo()
	}
	cfg.Log.Info("Using Mongo store", "database", cfg.MongoDatabaseName)
	return &Stores{
		Tx:           mongotx.NewTransactionManager(cfg.Client.Mongo),
		Rooms:        roomrepo.NewMongoRoomRepository(cfg),
		Reservations: repository.NewMongoReservationRepository(cfg),
		Calendar:     calendarrepo.NewMongoCalendarRepository(cfg),
		Blocks:       calendarrepo.NewMongoBlockRepository(cfg),
	}
}

func FromMemory(m *memory.Store) *Stores {
	return &Stores{
		Tx:           m.TxManager(),
		Rooms:        m.Rooms(),
		Reservations: m.Reservations(),
		Calendar:     m.Calendar(),
		Blocks:       m.Blocks(),
	}
}
