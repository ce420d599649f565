package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(AddArgs) (Result, error)
	Log    func(LogArgs) (Result, error)
	Obs    func(ObsArgs) (Result, error)
	Done   func(DoneArgs) (Result, error)
	Status func(StatusArgs) (Result, error)
	Move   func(MoveArgs) (Result, error)
	Off    func(OffArgs) (Result, error)
	Delete func(DeleteArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "add handler not configured"}
		}
		return handlers.Add(*cmd.Add)
	case TypeLog:
		if handlers.Log == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "log handler not configured"}
		}
		return handlers.Log(*cmd.Log)
	case TypeObs:
		if handlers.Obs == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "obs handler not configured"}
		}
		return handlers.Obs(*cmd.Obs)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "done handler not configured"}
		}
		return handlers.Done(*cmd.Done)
	case TypeStatus:
		if handlers.Status == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "status handler not configured"}
		}
		return handlers.Status(*cmd.Status)
	case TypeMove:
		if handlers.Move == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "move handler not configured"}
		}
		return handlers.Move(*cmd.Move)
	case TypeOff:
		if handlers.Off == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "off handler not configured"}
		}
		return handlers.Off(*cmd.Off)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "del handler not configured"}
		}
		return handlers.Delete(*cmd.Delete)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
