package notify

import (
	"fmt"
	"strings"
)

// messageByLocation holds the per-scanner message templates. Placeholders:
// {nome} customer first name, {os} order id, {local} location label.
var messageByLocation = map[string]string{
	"LOC001": "Olá {nome}! Recebemos seu equipamento na assistência. Sua ordem de serviço é a nº {os}. Avisaremos a cada etapa. 🙂",
	"LOC002": "Olá {nome}! Seu equipamento (OS {os}) está na bancada de diagnóstico. Em breve enviaremos o orçamento.",
	"LOC003": "Olá {nome}! O diagnóstico da OS {os} foi concluído e estamos aguardando sua aprovação do orçamento.",
	"LOC004": "Olá {nome}! A OS {os} está aguardando a chegada de peças. Avisaremos assim que o reparo começar.",
	"LOC005": "Olá {nome}! Boas notícias: o reparo do seu equipamento (OS {os}) está em andamento.",
	"LOC006": "Olá {nome}! O reparo da OS {os} terminou e o equipamento está em testes finais de qualidade.",
	"LOC007": "Olá {nome}! Seu equipamento (OS {os}) está pronto para retirada. Esperamos você! 🎉",
	"LOC008": "Olá {nome}! Registramos a entrega do equipamento da OS {os}. Obrigado pela confiança!",
}

// RenderMessage builds the customer-facing text for a movement. Unknown
// locations fall back to a generic movement message using the label.
func RenderMessage(change LocationChange) string {
	tpl, ok := messageByLocation[strings.ToUpper(change.LocationID)]
	if !ok {
		label := change.LocationLabel
		if label == "" {
			label = change.LocationID
		}
		tpl = fmt.Sprintf("Olá {nome}! Atualização da OS {os}: seu equipamento agora está em %s.", label)
	}
	r := strings.NewReplacer(
		"{nome}", firstName(change.CustomerName),
		"{os}", fmt.Sprintf("%d", change.OrderID),
		"{local}", change.LocationLabel,
	)
	return r.Replace(tpl)
}

func firstName(full string) string {
	name := strings.TrimSpace(full)
	if name == "" {
		return "cliente"
	}
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}
