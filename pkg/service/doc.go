/*
Package service é a fachada de regras de negócio dos todos.

O TodoService recebe todas as dependências no construtor (repositório,
emissor de URLs, cache de listagem, métricas, relógio e gerador de ids) e
aplica as regras de posse: toda operação é executada sob o userId do
chamador. Atualizar ou remover um todo de outro usuário é indistinguível de
atualizar ou remover um todo inexistente, e ambos retornam NotFoundError.

Exemplo de uso:

	svc, _ := service.New(repo, issuer,
		service.WithCache(listCache),
		service.WithMetrics(provider),
	)
	item, err := svc.CreateTodo(ctx, userID, models.CreateTodoRequest{Name: "Buy milk"})
*/
package service
