package chat

const getChatsQuery = `
  query GetChats {
    chats(order_by: { updated_at: desc }) {
      id
      user_id
      created_at
      updated_at
      messages(order_by: { created_at: desc }, limit: 1) {
        id
        content
        is_bot
        created_at
      }
    }
  }
`

const getChatMessagesQuery = `
  query GetChatMessages($chat_id: uuid!) {
    messages(
      where: { chat_id: { _eq: $chat_id } }
      order_by: { created_at: asc }
    ) {
      id
      chat_id
      user_id
      content
      is_bot
      created_at
      updated_at
    }
  }
`

const getChatWithMessagesQuery = `
  query GetChatWithMessages($chat_id: uuid!) {
    chats_by_pk(id: $chat_id) {
      id
      user_id
      created_at
      updated_at
      messages(order_by: { created_at: asc }) {
        id
        chat_id
        user_id
        content
        is_bot
        created_at
        updated_at
      }
    }
  }
`

const createChatMutation = `
  mutation CreateChat {
    insert_chats_one(object: {}) {
      id
      user_id
      created_at
      updated_at
    }
  }
`

const createMessageMutation = `
  mutation CreateMessage($object: messages_insert_input!) {
    insert_messages_one(object: $object) {
      id
      chat_id
      user_id
      content
      is_bot
      created_at
      updated_at
    }
  }
`

const deleteChatMutation = `
  mutation DeleteChat($chat_id: uuid!) {
    delete_chats_by_pk(id: $chat_id) {
      id
    }
  }
`

const subscribeToMessagesSubscription = `
  subscription SubscribeToMessages($chat_id: uuid!) {
    messages(
      where: { chat_id: { _eq: $chat_id } }
      order_by: { created_at: asc }
    ) {
      id
      chat_id
      user_id
      content
      is_bot
      created_at
      updated_at
    }
  }
`

const subscribeToChatsSubscription = `
  subscription SubscribeToChats {
    chats(order_by: { updated_at: desc }) {
      id
      user_id
      created_at
      updated_at
      messages(order_by: { created_at: desc }, limit: 1) {
        id
        content
        is_bot
        created_at
      }
    }
  }
`

// The action hands the message to the external workflow that writes the bot reply.
const sendMessageAction = `
  mutation SendMessage($chat_id: ID!, $message: String!, $session_variables: SessionVariablesInput!) {
    sendMessage(chat_id: $chat_id, message: $message, session_variables: $session_variables) {
      success
      message
      error
    }
  }
`
