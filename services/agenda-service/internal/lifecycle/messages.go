package lifecycle

// User-facing messages, rendered verbatim by the management UI.
const (
	MsgCanceled          = "Agendamento cancelado com sucesso"
	MsgAlreadyCanceled   = "Este agendamento já está cancelado"
	MsgConfirmed         = "Agendamento confirmado com sucesso"
	MsgConfirmNotPending = "Apenas agendamentos pendentes podem ser confirmados"
	MsgReverted          = "Agendamento revertido para pendente"
	MsgRevertNotConfirm  = "Apenas agendamentos confirmados podem voltar para pendente"
	MsgDeleted           = "Agendamento excluído com sucesso"
	MsgDeleteNotCanceled = "Apenas agendamentos cancelados podem ser excluídos"
	MsgUpdated           = "Agendamento atualizado com sucesso"
	MsgEditConfirmed     = "Não é possível editar um agendamento confirmado"
	MsgEditCanceled      = "Não é possível editar um agendamento cancelado"
	MsgInvalidStatus     = "Status inválido para atualização"
	MsgCreated           = "Agendamento criado com sucesso"
	MsgNotFound          = "Agendamento não encontrado"
	MsgSlotTaken         = "Horário indisponível para este profissional"
	MsgOutsideWindow     = "Horário fora do expediente do profissional"
	MsgNothingToUpdate   = "Nenhuma alteração informada"
)
